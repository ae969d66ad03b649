package cli

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pimcabanlit/firecrawl-cli/internal/firecrawl"
	"github.com/pimcabanlit/firecrawl-cli/internal/session"
	"github.com/pimcabanlit/firecrawl-cli/internal/types"
)

const (
	demoExtractURL          = "https://www.tripadvisor.com.ph/Restaurant_Review-g298450-d1147837-Reviews-Italianni_s-Makati_Metro_Manila_Luzon.html"
	demoExtractPrompt       = "Extract user reviews"
	demoExtractSystemPrompt = "You are a helpful assistant extracting restaurant review information."
	demoArtifactName        = "structured_data"

	debugSimpleURL    = "https://example.com"
	debugStandingsURL = "https://en.volleyballworld.com/volleyball/competitions/volleyball-nations-league/standings/men/"

	apiKeyMissingWarning     = "Warning: FIRECRAWL_API_KEY environment variable not set"
	apiKeyMissingInstruction = "  Set it with: export FIRECRAWL_API_KEY='your_api_key_here'"
)

// demoExtractSchema describes the review structure requested by the demo.
func demoExtractSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":           map[string]any{"type": "string"},
			"average_rating": map[string]any{"type": "number"},
			"reviews": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"reviews"},
	}
}

// runDemoSequence exercises the client end to end: it lists the advertised
// resources, then extracts structured review data and saves it alongside a
// spreadsheet export.
func runDemoSequence(ctx context.Context, app *application) error {
	resources, listError := app.runner.ListResources(ctx)
	if listError != nil {
		return listError
	}
	fmt.Printf(resourceListingHeaderFormat, len(resources))
	for _, resource := range resources {
		fmt.Printf(resourceListingEntryFormat, resource.URI, resource.Name)
	}

	fmt.Println("\nExtracting structured data from the review page...")
	result, extractError := app.runner.client.Extract(ctx, []string{demoExtractURL}, firecrawl.ExtractOptions{
		Prompt:       demoExtractPrompt,
		SystemPrompt: demoExtractSystemPrompt,
		Schema:       demoExtractSchema(),
	})
	if extractError != nil {
		return extractError
	}

	artifacts, saveError := app.saver.SaveResult(result, demoArtifactName)
	if saveError != nil {
		return saveError
	}
	fmt.Printf(savedResultMessageFormat, artifacts.JSONPath)
	if artifacts.MarkdownPath != "" {
		fmt.Printf(savedMarkdownMessageFormat, artifacts.MarkdownPath)
	}
	tablePath, tableError := app.saver.SaveTable(result, demoArtifactName, types.TableFormatXLSX)
	if tableError != nil {
		app.logger.Warn("spreadsheet export skipped", zap.Error(tableError))
		return nil
	}
	fmt.Printf(savedTableMessageFormat, tablePath)
	return nil
}

// runDebugSequence probes the server with scrape variants to expose how the
// response structure changes with the request shape. It refuses to run
// without the API key since every probe would fail remotely.
func runDebugSequence(ctx context.Context, app *application) error {
	if os.Getenv(session.APIKeyVariableName) == "" {
		fmt.Println(apiKeyMissingWarning)
		fmt.Println(apiKeyMissingInstruction)
		return nil
	}

	fmt.Println("Available tools:")
	tools, listError := app.runner.ListTools(ctx)
	if listError != nil {
		return listError
	}
	for _, tool := range tools {
		fmt.Printf(toolListingEntryFormat, tool.Name, tool.Description)
	}

	probes := []struct {
		label   string
		url     string
		options firecrawl.ScrapeOptions
	}{
		{
			label: "Testing with a simple URL...",
			url:   debugSimpleURL,
		},
		{
			label: "Testing standings URL with minimal params...",
			url:   debugStandingsURL,
		},
		{
			label:   "Testing standings URL with formats specified...",
			url:     debugStandingsURL,
			options: firecrawl.ScrapeOptions{Formats: []string{defaultScrapeFormat}},
		},
		{
			label:   "Testing standings URL with singular format key...",
			url:     debugStandingsURL,
			options: firecrawl.ScrapeOptions{Extra: map[string]any{"format": defaultScrapeFormat}},
		},
	}
	for _, probe := range probes {
		fmt.Println("\n" + probe.label)
		result, scrapeError := app.runner.client.Scrape(ctx, probe.url, probe.options)
		if scrapeError != nil {
			fmt.Printf("Error: %v\n", scrapeError)
			continue
		}
		if previewError := app.deliver(result, "", deliveryOptions{previewLimit: app.previewLimit}); previewError != nil {
			return previewError
		}
	}
	return nil
}
