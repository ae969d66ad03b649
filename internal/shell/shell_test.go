package shell

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pimcabanlit/firecrawl-cli/internal/normalize"
	"github.com/pimcabanlit/firecrawl-cli/internal/types"
)

type fakeOperations struct {
	tools     []types.ToolDescriptor
	resources []types.ResourceDescriptor
	result    *normalize.Value
	err       error

	scrapedURLs    []string
	crawledURLs    []string
	searchQueries  []string
	extractURLs    [][]string
	extractPrompts []string
	extractSchemas []map[string]any
}

func (operations *fakeOperations) ListTools(context.Context) ([]types.ToolDescriptor, error) {
	return operations.tools, operations.err
}

func (operations *fakeOperations) ListResources(context.Context) ([]types.ResourceDescriptor, error) {
	return operations.resources, operations.err
}

func (operations *fakeOperations) Scrape(_ context.Context, url string) (*normalize.Value, error) {
	operations.scrapedURLs = append(operations.scrapedURLs, url)
	return operations.result, operations.err
}

func (operations *fakeOperations) Crawl(_ context.Context, url string) (*normalize.Value, error) {
	operations.crawledURLs = append(operations.crawledURLs, url)
	return operations.result, operations.err
}

func (operations *fakeOperations) Search(_ context.Context, query string) (*normalize.Value, error) {
	operations.searchQueries = append(operations.searchQueries, query)
	return operations.result, operations.err
}

func (operations *fakeOperations) Extract(_ context.Context, urls []string, prompt string, _ string, schema map[string]any) (*normalize.Value, error) {
	operations.extractURLs = append(operations.extractURLs, urls)
	operations.extractPrompts = append(operations.extractPrompts, prompt)
	operations.extractSchemas = append(operations.extractSchemas, schema)
	return operations.result, operations.err
}

type fakeSaver struct {
	savedNames   []string
	tableNames   []string
	tableFormats []string
}

func (saver *fakeSaver) SaveResult(_ *normalize.Value, name string) (types.Artifacts, error) {
	saver.savedNames = append(saver.savedNames, name)
	return types.Artifacts{JSONPath: name + types.ExtensionJSON}, nil
}

func (saver *fakeSaver) SaveTable(_ *normalize.Value, name string, format string) (string, error) {
	saver.tableNames = append(saver.tableNames, name)
	saver.tableFormats = append(saver.tableFormats, format)
	return name + "." + format, nil
}

func textResult(text string) *normalize.Value {
	item := normalize.NewMapping()
	item.SetField("type", normalize.NewText("text"))
	item.SetField("text", normalize.NewText(text))
	root := normalize.NewMapping()
	root.SetField("content", normalize.NewItems(item))
	return root
}

func runShell(t *testing.T, script string, operations *fakeOperations, saver *fakeSaver) string {
	t.Helper()
	outputBuffer := &strings.Builder{}
	menu := New(Options{
		Operations: operations,
		Saver:      saver,
		Input:      strings.NewReader(script),
		Output:     outputBuffer,
		Now:        func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) },
	})
	if err := menu.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	return outputBuffer.String()
}

func TestRunExitsOnExitChoice(t *testing.T) {
	operations := &fakeOperations{}
	transcript := runShell(t, "7\n", operations, &fakeSaver{})
	if !strings.Contains(transcript, "Firecrawl MCP Interactive Client") {
		t.Fatalf("expected menu title in transcript:\n%s", transcript)
	}
}

func TestRunExitsOnEndOfInput(t *testing.T) {
	operations := &fakeOperations{}
	runShell(t, "", operations, &fakeSaver{})
}

func TestRunRejectsInvalidChoice(t *testing.T) {
	transcript := runShell(t, "9\n7\n", &fakeOperations{}, &fakeSaver{})
	if !strings.Contains(transcript, "Invalid choice. Please try again.") {
		t.Fatalf("expected invalid choice message:\n%s", transcript)
	}
}

func TestRunListsToolsAndResources(t *testing.T) {
	operations := &fakeOperations{
		tools:     []types.ToolDescriptor{{Name: "firecrawl_scrape", Description: "Scrape a single page"}},
		resources: []types.ResourceDescriptor{{URI: "firecrawl://status", Name: "status"}},
	}
	transcript := runShell(t, "1\n2\n7\n", operations, &fakeSaver{})
	if !strings.Contains(transcript, "Available tools (1):") {
		t.Fatalf("expected tool listing:\n%s", transcript)
	}
	if !strings.Contains(transcript, "  - firecrawl_scrape: Scrape a single page") {
		t.Fatalf("expected tool entry:\n%s", transcript)
	}
	if !strings.Contains(transcript, "Available resources (1):") {
		t.Fatalf("expected resource listing:\n%s", transcript)
	}
}

func TestRunScrapePreviewWithoutSaving(t *testing.T) {
	operations := &fakeOperations{result: textResult("scraped body")}
	transcript := runShell(t, "3\nhttps://example.com\nn\n7\n", operations, &fakeSaver{})
	if len(operations.scrapedURLs) != 1 || operations.scrapedURLs[0] != "https://example.com" {
		t.Fatalf("unexpected scraped URLs %v", operations.scrapedURLs)
	}
	if !strings.Contains(transcript, "Scrape result preview:") {
		t.Fatalf("expected preview heading:\n%s", transcript)
	}
	if !strings.Contains(transcript, "scraped body") {
		t.Fatalf("expected preview body:\n%s", transcript)
	}
}

func TestRunScrapeSavesWithDerivedName(t *testing.T) {
	operations := &fakeOperations{result: textResult("scraped body")}
	saver := &fakeSaver{}
	runShell(t, "3\nhttps://example.com/page\ny\n\n7\n", operations, saver)
	if len(saver.savedNames) != 1 {
		t.Fatalf("expected one save, got %v", saver.savedNames)
	}
	if saver.savedNames[0] != "scrape_example_com_page" {
		t.Fatalf("unexpected derived name %q", saver.savedNames[0])
	}
}

func TestRunSearchSavesWithExplicitName(t *testing.T) {
	operations := &fakeOperations{result: textResult("results")}
	saver := &fakeSaver{}
	runShell(t, "5\ngolang tutorials\ny\nmy_results\n7\n", operations, saver)
	if len(operations.searchQueries) != 1 || operations.searchQueries[0] != "golang tutorials" {
		t.Fatalf("unexpected queries %v", operations.searchQueries)
	}
	if len(saver.savedNames) != 1 || saver.savedNames[0] != "my_results" {
		t.Fatalf("unexpected saved names %v", saver.savedNames)
	}
}

func TestRunExtractUsesDefaultSchemaOnEmptyInput(t *testing.T) {
	operations := &fakeOperations{result: textResult("extracted")}
	script := strings.Join([]string{
		"6",
		"https://example.com/a, https://example.com/b",
		"list the products",
		"",
		"y",
		"",
		"n",
		"7",
	}, "\n") + "\n"
	transcript := runShell(t, script, operations, &fakeSaver{})
	if len(operations.extractURLs) != 1 {
		t.Fatalf("expected one extract call, got %d", len(operations.extractURLs))
	}
	urls := operations.extractURLs[0]
	if len(urls) != 2 || urls[0] != "https://example.com/a" || urls[1] != "https://example.com/b" {
		t.Fatalf("unexpected extract URLs %v", urls)
	}
	schema := operations.extractSchemas[0]
	if schema == nil {
		t.Fatalf("expected default schema")
	}
	if schema["type"] != "object" {
		t.Fatalf("unexpected schema %v", schema)
	}
	if !strings.Contains(transcript, "Using default product schema") {
		t.Fatalf("expected default schema notice:\n%s", transcript)
	}
}

func TestRunExtractFallsBackToDefaultSchemaOnMalformedInput(t *testing.T) {
	operations := &fakeOperations{result: textResult("extracted")}
	script := strings.Join([]string{
		"6",
		"https://example.com",
		"list the products",
		"",
		"y",
		"{not json",
		"n",
		"7",
	}, "\n") + "\n"
	transcript := runShell(t, script, operations, &fakeSaver{})
	schema := operations.extractSchemas[0]
	if schema == nil || schema["type"] != "object" {
		t.Fatalf("expected default schema fallback, got %v", schema)
	}
	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties mapping in fallback schema, got %v", schema)
	}
	if _, hasName := properties["name"]; !hasName {
		t.Fatalf("expected name property in fallback schema, got %v", properties)
	}
	if !strings.Contains(transcript, "Invalid JSON schema, using default product schema") {
		t.Fatalf("expected malformed schema notice:\n%s", transcript)
	}
}

func TestRunExtractSavesSpreadsheet(t *testing.T) {
	operations := &fakeOperations{result: textResult("extracted")}
	saver := &fakeSaver{}
	script := strings.Join([]string{
		"6",
		"https://example.com",
		"list the products",
		"",
		"n",
		"y",
		"",
		"y",
		"7",
	}, "\n") + "\n"
	runShell(t, script, operations, saver)
	if len(saver.savedNames) != 1 || saver.savedNames[0] != "extract_20250314_092653" {
		t.Fatalf("unexpected saved names %v", saver.savedNames)
	}
	if len(saver.tableFormats) != 1 || saver.tableFormats[0] != types.TableFormatXLSX {
		t.Fatalf("expected spreadsheet save, got %v", saver.tableFormats)
	}
}
