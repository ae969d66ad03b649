package persist_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pimcabanlit/firecrawl-cli/internal/normalize"
	"github.com/pimcabanlit/firecrawl-cli/internal/persist"
	"github.com/pimcabanlit/firecrawl-cli/internal/types"
)

func textResult(fragments ...string) *normalize.Value {
	contentItems := normalize.NewItems()
	for _, fragment := range fragments {
		contentItems.Append(normalize.NewMapping().
			SetField("type", normalize.NewPrimitive("text")).
			SetField("text", normalize.NewText(fragment)))
	}
	return normalize.NewMapping().SetField("content", contentItems)
}

func TestSaveResultWritesJSONAndMarkdown(t *testing.T) {
	outputDirectory := t.TempDir()
	writer := persist.NewWriter(outputDirectory, nil)

	artifacts, saveErr := writer.SaveResult(textResult("A", "B"), "sample")
	if saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}

	if artifacts.JSONPath == "" {
		t.Fatalf("expected a JSON artifact")
	}
	jsonBytes, readErr := os.ReadFile(artifacts.JSONPath)
	if readErr != nil {
		t.Fatalf("unable to read JSON artifact: %v", readErr)
	}
	var decoded map[string]any
	if unmarshalErr := json.Unmarshal(jsonBytes, &decoded); unmarshalErr != nil {
		t.Fatalf("JSON artifact is not valid JSON: %v", unmarshalErr)
	}

	if artifacts.MarkdownPath == "" {
		t.Fatalf("expected a Markdown artifact")
	}
	markdownBytes, readErr := os.ReadFile(artifacts.MarkdownPath)
	if readErr != nil {
		t.Fatalf("unable to read Markdown artifact: %v", readErr)
	}
	if string(markdownBytes) != "A\n\nB" {
		t.Fatalf("unexpected Markdown content: %q", string(markdownBytes))
	}
}

func TestSaveResultSkipsMarkdownWithoutText(t *testing.T) {
	outputDirectory := t.TempDir()
	writer := persist.NewWriter(outputDirectory, nil)

	noTextValue := normalize.NewMapping().SetField("meta", normalize.NewPrimitive(7))
	artifacts, saveErr := writer.SaveResult(noTextValue, "metadata")
	if saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}
	if artifacts.MarkdownPath != "" {
		t.Fatalf("expected no Markdown artifact, got %s", artifacts.MarkdownPath)
	}
	markdownPath := filepath.Join(outputDirectory, "metadata"+types.ExtensionMarkdown)
	if _, statErr := os.Stat(markdownPath); !os.IsNotExist(statErr) {
		t.Fatalf("Markdown file must not exist, stat error: %v", statErr)
	}
}

func TestSaveResultPreservesNonASCII(t *testing.T) {
	outputDirectory := t.TempDir()
	writer := persist.NewWriter(outputDirectory, nil)

	artifacts, saveErr := writer.SaveResult(textResult("résumé — 東京"), "unicode")
	if saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}
	jsonBytes, readErr := os.ReadFile(artifacts.JSONPath)
	if readErr != nil {
		t.Fatalf("unable to read JSON artifact: %v", readErr)
	}
	if !strings.Contains(string(jsonBytes), "東京") {
		t.Fatalf("non-ASCII content was escaped: %s", string(jsonBytes))
	}
}

func TestSaveTableCSV(t *testing.T) {
	outputDirectory := t.TempDir()
	writer := persist.NewWriter(outputDirectory, nil)

	tablePath, saveErr := writer.SaveTable(textResult("A", "B"), "table", types.TableFormatCSV)
	if saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}
	csvBytes, readErr := os.ReadFile(tablePath)
	if readErr != nil {
		t.Fatalf("unable to read CSV artifact: %v", readErr)
	}
	if string(csvBytes) != "A\nB\n" {
		t.Fatalf("unexpected CSV content: %q", string(csvBytes))
	}
}

func TestSaveTableXLSX(t *testing.T) {
	outputDirectory := t.TempDir()
	writer := persist.NewWriter(outputDirectory, nil)

	tablePath, saveErr := writer.SaveTable(textResult("A", "B"), "table", types.TableFormatXLSX)
	if saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}
	if _, statErr := os.Stat(tablePath); statErr != nil {
		t.Fatalf("spreadsheet artifact missing: %v", statErr)
	}
}

func TestSaveTableRejectsResultsWithoutContent(t *testing.T) {
	outputDirectory := t.TempDir()
	writer := persist.NewWriter(outputDirectory, nil)

	noContentValue := normalize.NewMapping().SetField("data", normalize.NewText("x"))
	if _, saveErr := writer.SaveTable(noContentValue, "table", types.TableFormatCSV); !errors.Is(saveErr, persist.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", saveErr)
	}
	directoryEntries, readErr := os.ReadDir(outputDirectory)
	if readErr != nil {
		t.Fatalf("unable to read output directory: %v", readErr)
	}
	if len(directoryEntries) != 0 {
		t.Fatalf("expected no files on disk, found %d", len(directoryEntries))
	}
}

func TestSaveTableRejectsUnknownFormat(t *testing.T) {
	writer := persist.NewWriter(t.TempDir(), nil)
	if _, saveErr := writer.SaveTable(textResult("A"), "table", "parquet"); !errors.Is(saveErr, persist.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", saveErr)
	}
}
