// Package firecrawl wraps the remote Firecrawl tools behind typed operations.
package firecrawl

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pimcabanlit/firecrawl-cli/internal/normalize"
	"github.com/pimcabanlit/firecrawl-cli/internal/types"
)

// ErrToolFailed indicates the remote tool ran but reported an error result.
// It is distinct from transport failures so callers can tell "the server
// rejected this request" from "the call never completed".
var ErrToolFailed = errors.New("remote tool reported an error")

// ToolCaller is the narrow session surface the façade depends on.
type ToolCaller interface {
	CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error)
}

// Client exposes the Firecrawl operations over an established session.
type Client struct {
	caller ToolCaller
}

// NewClient constructs a Client around the provided tool caller.
func NewClient(caller ToolCaller) *Client {
	return &Client{caller: caller}
}

// ScrapeOptions carries optional scrape parameters.
type ScrapeOptions struct {
	// Formats selects the representations the server should return,
	// for example markdown or html.
	Formats []string
	// Extra is forwarded verbatim alongside the declared parameters.
	Extra map[string]any
}

// CrawlOptions carries optional crawl parameters.
type CrawlOptions struct {
	Extra map[string]any
}

// SearchOptions carries optional search parameters.
type SearchOptions struct {
	// Limit caps the number of results; zero leaves the server default.
	Limit int
	Extra map[string]any
}

// ExtractOptions carries the structured-extraction parameters. The schema is
// forwarded verbatim; the remote service is responsible for honoring it.
type ExtractOptions struct {
	Prompt             string
	SystemPrompt       string
	Schema             map[string]any
	AllowExternalLinks bool
	EnableWebSearch    bool
	IncludeSubdomains  bool
}

// DefaultExtractSchema returns the fallback product schema used when no
// schema is supplied interactively.
func DefaultExtractSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"price":       map[string]any{"type": "number"},
			"description": map[string]any{"type": "string"},
		},
		"required": []any{"name"},
	}
}

// Scrape fetches a single URL through the firecrawl_scrape tool.
func (client *Client) Scrape(ctx context.Context, url string, options ScrapeOptions) (*normalize.Value, error) {
	arguments := map[string]any{"url": url}
	if len(options.Formats) > 0 {
		arguments["formats"] = options.Formats
	}
	mergeExtra(arguments, options.Extra)
	return client.invoke(ctx, types.ToolScrape, arguments)
}

// Crawl starts a crawl of the given URL through the crawl_url tool.
func (client *Client) Crawl(ctx context.Context, url string, options CrawlOptions) (*normalize.Value, error) {
	arguments := map[string]any{"url": url}
	mergeExtra(arguments, options.Extra)
	return client.invoke(ctx, types.ToolCrawl, arguments)
}

// Search runs a web search through the search tool.
func (client *Client) Search(ctx context.Context, query string, options SearchOptions) (*normalize.Value, error) {
	arguments := map[string]any{"query": query}
	if options.Limit > 0 {
		arguments["limit"] = options.Limit
	}
	mergeExtra(arguments, options.Extra)
	return client.invoke(ctx, types.ToolSearch, arguments)
}

// Extract performs structured extraction over one or more URLs through the
// firecrawl_extract tool. The batch succeeds or fails as a whole; there are
// no partial results for multi-URL requests.
func (client *Client) Extract(ctx context.Context, urls []string, options ExtractOptions) (*normalize.Value, error) {
	arguments := map[string]any{
		"urls":               urls,
		"prompt":             options.Prompt,
		"allowExternalLinks": options.AllowExternalLinks,
		"enableWebSearch":    options.EnableWebSearch,
		"includeSubdomains":  options.IncludeSubdomains,
	}
	if options.SystemPrompt != "" {
		arguments["systemPrompt"] = options.SystemPrompt
	}
	if options.Schema != nil {
		arguments["schema"] = options.Schema
	}
	return client.invoke(ctx, types.ToolExtract, arguments)
}

// invoke performs the tool call and normalizes the result. Error results are
// surfaced as ErrToolFailed carrying the remote message.
func (client *Client) invoke(ctx context.Context, toolName string, arguments map[string]any) (*normalize.Value, error) {
	callResult, callErr := client.caller.CallTool(ctx, toolName, arguments)
	if callErr != nil {
		return nil, callErr
	}
	normalized := normalize.FromToolResult(callResult)
	if callResult != nil && callResult.IsError {
		remoteMessage, hasMessage := normalized.Text()
		if !hasMessage {
			remoteMessage = toolName
		}
		return normalized, fmt.Errorf("%w: %s", ErrToolFailed, remoteMessage)
	}
	return normalized, nil
}

func mergeExtra(arguments map[string]any, extra map[string]any) {
	for parameterName, parameterValue := range extra {
		arguments[parameterName] = parameterValue
	}
}
