// Package shell implements the interactive menu loop that drives the
// remote operations over an injected reader and writer pair.
package shell

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pimcabanlit/firecrawl-cli/internal/firecrawl"
	"github.com/pimcabanlit/firecrawl-cli/internal/normalize"
	"github.com/pimcabanlit/firecrawl-cli/internal/output"
	"github.com/pimcabanlit/firecrawl-cli/internal/persist"
	"github.com/pimcabanlit/firecrawl-cli/internal/types"
)

const (
	menuSeparator = "=================================================="
	menuTitle     = "Firecrawl MCP Interactive Client"

	choicePromptMessage      = "Enter your choice (1-7): "
	invalidChoiceMessage     = "Invalid choice. Please try again."
	scrapeURLPromptMessage   = "Enter URL to scrape: "
	crawlURLPromptMessage    = "Enter URL to crawl: "
	searchQueryPromptMessage = "Enter search query: "
	extractURLPromptMessage  = "Enter URL(s) to extract from (separate multiple URLs with commas): "
	extractPromptMessage     = "Enter extraction prompt: "
	systemPromptMessage      = "System prompt (optional): "
	useSchemaPromptMessage   = "Use JSON schema? (y/n): "
	schemaPromptMessage      = "Enter JSON schema (or press Enter for a simple product example): "
	savePromptMessage        = "Save to file? (y/n): "
	filenamePromptMessage    = "Enter filename (or press Enter for auto-generated): "
	excelPromptMessage       = "Save as Excel? (y/n): "

	choiceListTools     = "1"
	choiceListResources = "2"
	choiceScrape        = "3"
	choiceCrawl         = "4"
	choiceSearch        = "5"
	choiceExtract       = "6"
	choiceExit          = "7"
)

// Operations is the set of remote actions the menu can trigger.
type Operations interface {
	ListTools(ctx context.Context) ([]types.ToolDescriptor, error)
	ListResources(ctx context.Context) ([]types.ResourceDescriptor, error)
	Scrape(ctx context.Context, url string) (*normalize.Value, error)
	Crawl(ctx context.Context, url string) (*normalize.Value, error)
	Search(ctx context.Context, query string) (*normalize.Value, error)
	Extract(ctx context.Context, urls []string, prompt string, systemPrompt string, schema map[string]any) (*normalize.Value, error)
}

// ResultSaver persists normalized results to disk.
type ResultSaver interface {
	SaveResult(value *normalize.Value, name string) (types.Artifacts, error)
	SaveTable(value *normalize.Value, name string, format string) (string, error)
}

// Options configures a Shell instance.
type Options struct {
	Operations   Operations
	Saver        ResultSaver
	Input        io.Reader
	Output       io.Writer
	Logger       *zap.Logger
	PreviewLimit int
	Now          func() time.Time
}

// Shell runs the interactive menu until exit or end of input.
type Shell struct {
	operations   Operations
	saver        ResultSaver
	reader       *bufio.Reader
	writer       io.Writer
	logger       *zap.Logger
	previewLimit int
	now          func() time.Time
}

// New builds a Shell from the supplied options.
func New(options Options) *Shell {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	previewLimit := options.PreviewLimit
	if previewLimit <= 0 {
		previewLimit = output.DefaultItemPreviewLimit
	}
	nowFunc := options.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Shell{
		operations:   options.Operations,
		saver:        options.Saver,
		reader:       bufio.NewReader(options.Input),
		writer:       options.Output,
		logger:       logger,
		previewLimit: previewLimit,
		now:          nowFunc,
	}
}

// Run loops over the menu until the exit choice, end of input, or context
// cancellation.
func (shell *Shell) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		shell.printMenu()
		choice, readErr := shell.readLine(choicePromptMessage)
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return fmt.Errorf("read menu choice: %w", readErr)
		}
		switch choice {
		case choiceListTools:
			shell.runListTools(ctx)
		case choiceListResources:
			shell.runListResources(ctx)
		case choiceScrape:
			shell.runScrape(ctx)
		case choiceCrawl:
			shell.runCrawl(ctx)
		case choiceSearch:
			shell.runSearch(ctx)
		case choiceExtract:
			shell.runExtract(ctx)
		case choiceExit:
			return nil
		default:
			fmt.Fprintln(shell.writer, invalidChoiceMessage)
		}
	}
}

func (shell *Shell) printMenu() {
	fmt.Fprintln(shell.writer)
	fmt.Fprintln(shell.writer, menuSeparator)
	fmt.Fprintln(shell.writer, menuTitle)
	fmt.Fprintln(shell.writer, menuSeparator)
	fmt.Fprintln(shell.writer, "1. List tools")
	fmt.Fprintln(shell.writer, "2. List resources")
	fmt.Fprintln(shell.writer, "3. Scrape URL")
	fmt.Fprintln(shell.writer, "4. Crawl URL")
	fmt.Fprintln(shell.writer, "5. Search")
	fmt.Fprintln(shell.writer, "6. Extract")
	fmt.Fprintln(shell.writer, "7. Exit")
}

func (shell *Shell) readLine(prompt string) (string, error) {
	fmt.Fprint(shell.writer, prompt)
	line, err := shell.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (shell *Shell) readYesNo(prompt string) (bool, error) {
	answer, err := shell.readLine(prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "y"), nil
}

func (shell *Shell) runListTools(ctx context.Context) {
	tools, err := shell.operations.ListTools(ctx)
	if err != nil {
		shell.reportError(err)
		return
	}
	fmt.Fprintf(shell.writer, "\nAvailable tools (%d):\n", len(tools))
	for _, tool := range tools {
		fmt.Fprintf(shell.writer, "  - %s: %s\n", tool.Name, tool.Description)
	}
}

func (shell *Shell) runListResources(ctx context.Context) {
	resources, err := shell.operations.ListResources(ctx)
	if err != nil {
		shell.reportError(err)
		return
	}
	fmt.Fprintf(shell.writer, "\nAvailable resources (%d):\n", len(resources))
	for _, resource := range resources {
		fmt.Fprintf(shell.writer, "  - %s: %s\n", resource.URI, resource.Name)
	}
}

func (shell *Shell) runScrape(ctx context.Context) {
	url, err := shell.readLine(scrapeURLPromptMessage)
	if err != nil || url == "" {
		return
	}
	saveToFile, filename, promptErr := shell.promptSaveOptions()
	if promptErr != nil {
		return
	}
	result, scrapeErr := shell.operations.Scrape(ctx, url)
	if scrapeErr != nil {
		shell.reportError(scrapeErr)
		return
	}
	if saveToFile {
		if filename == "" {
			filename = persist.NameForScrape(url)
		}
		shell.saveResult(result, filename)
		return
	}
	fmt.Fprintln(shell.writer, "\nScrape result preview:")
	shell.preview(result)
}

func (shell *Shell) runCrawl(ctx context.Context) {
	url, err := shell.readLine(crawlURLPromptMessage)
	if err != nil || url == "" {
		return
	}
	saveToFile, filename, promptErr := shell.promptSaveOptions()
	if promptErr != nil {
		return
	}
	result, crawlErr := shell.operations.Crawl(ctx, url)
	if crawlErr != nil {
		shell.reportError(crawlErr)
		return
	}
	if saveToFile {
		if filename == "" {
			filename = persist.NameForCrawl(url)
		}
		shell.saveResult(result, filename)
		return
	}
	fmt.Fprintln(shell.writer, "\nCrawl result preview:")
	shell.preview(result)
}

func (shell *Shell) runSearch(ctx context.Context) {
	query, err := shell.readLine(searchQueryPromptMessage)
	if err != nil || query == "" {
		return
	}
	saveToFile, filename, promptErr := shell.promptSaveOptions()
	if promptErr != nil {
		return
	}
	result, searchErr := shell.operations.Search(ctx, query)
	if searchErr != nil {
		shell.reportError(searchErr)
		return
	}
	if saveToFile {
		if filename == "" {
			filename = persist.NameForSearch(query)
		}
		shell.saveResult(result, filename)
		return
	}
	fmt.Fprintln(shell.writer, "\nSearch results preview:")
	shell.preview(result)
}

func (shell *Shell) runExtract(ctx context.Context) {
	urlsInput, err := shell.readLine(extractURLPromptMessage)
	if err != nil || urlsInput == "" {
		return
	}
	urls := splitURLs(urlsInput)
	prompt, promptErr := shell.readLine(extractPromptMessage)
	if promptErr != nil || prompt == "" {
		return
	}
	fmt.Fprintln(shell.writer, "\nOptional parameters:")
	systemPrompt, systemErr := shell.readLine(systemPromptMessage)
	if systemErr != nil {
		return
	}
	useSchema, schemaChoiceErr := shell.readYesNo(useSchemaPromptMessage)
	if schemaChoiceErr != nil {
		return
	}
	var schema map[string]any
	if useSchema {
		schemaInput, schemaErr := shell.readLine(schemaPromptMessage)
		if schemaErr != nil {
			return
		}
		schema = shell.parseSchema(schemaInput)
	}
	saveToFile, filename, saveErr := shell.promptSaveOptions()
	if saveErr != nil {
		return
	}
	saveAsExcel := false
	if saveToFile {
		saveAsExcel, err = shell.readYesNo(excelPromptMessage)
		if err != nil {
			return
		}
	}

	result, extractErr := shell.operations.Extract(ctx, urls, prompt, systemPrompt, schema)
	if extractErr != nil {
		shell.reportError(extractErr)
		return
	}
	if saveToFile {
		if filename == "" {
			filename = persist.NameForExtract(shell.now())
		}
		shell.saveResult(result, filename)
		if saveAsExcel {
			path, tableErr := shell.saver.SaveTable(result, filename, types.TableFormatXLSX)
			if tableErr != nil {
				shell.reportError(tableErr)
				return
			}
			fmt.Fprintf(shell.writer, "Saved spreadsheet to %s\n", path)
		}
		return
	}
	fmt.Fprintln(shell.writer, "\nExtract result preview:")
	shell.preview(result)
}

// parseSchema interprets the schema line: both empty input and malformed
// JSON fall back to the default product schema.
func (shell *Shell) parseSchema(schemaInput string) map[string]any {
	if schemaInput == "" {
		fmt.Fprintln(shell.writer, "Using default product schema")
		return firecrawl.DefaultExtractSchema()
	}
	var schema map[string]any
	if err := json.Unmarshal([]byte(schemaInput), &schema); err != nil {
		fmt.Fprintln(shell.writer, "Invalid JSON schema, using default product schema")
		return firecrawl.DefaultExtractSchema()
	}
	return schema
}

func (shell *Shell) promptSaveOptions() (bool, string, error) {
	saveToFile, err := shell.readYesNo(savePromptMessage)
	if err != nil {
		return false, "", err
	}
	if !saveToFile {
		return false, "", nil
	}
	filename, filenameErr := shell.readLine(filenamePromptMessage)
	if filenameErr != nil {
		return false, "", filenameErr
	}
	return true, filename, nil
}

func (shell *Shell) saveResult(result *normalize.Value, filename string) {
	artifacts, err := shell.saver.SaveResult(result, filename)
	if err != nil {
		shell.reportError(err)
		return
	}
	fmt.Fprintf(shell.writer, "Saved result to %s\n", artifacts.JSONPath)
	if artifacts.MarkdownPath != "" {
		fmt.Fprintf(shell.writer, "Saved markdown to %s\n", artifacts.MarkdownPath)
	}
}

func (shell *Shell) preview(result *normalize.Value) {
	if err := output.RenderPreview(shell.writer, result, shell.previewLimit); err != nil {
		shell.reportError(err)
	}
}

func (shell *Shell) reportError(err error) {
	shell.logger.Debug("interactive operation failed", zap.Error(err))
	fmt.Fprintf(shell.writer, "Error: %v\n", err)
}

func splitURLs(input string) []string {
	parts := strings.Split(input, ",")
	urls := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}
