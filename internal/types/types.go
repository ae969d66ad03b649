// Package types defines the cross-package data structures used by the firecrawl CLI.
package types

const (
	// ToolScrape is the remote tool name for single-page scraping.
	ToolScrape = "firecrawl_scrape"
	// ToolCrawl is the remote tool name for site crawling.
	ToolCrawl = "crawl_url"
	// ToolSearch is the remote tool name for web search.
	ToolSearch = "search"
	// ToolExtract is the remote tool name for structured extraction.
	ToolExtract = "firecrawl_extract"

	// TableFormatCSV selects comma-separated table output.
	TableFormatCSV = "csv"
	// TableFormatXLSX selects spreadsheet table output.
	TableFormatXLSX = "xlsx"

	// ExtensionJSON is appended to saved JSON artifacts.
	ExtensionJSON = ".json"
	// ExtensionMarkdown is appended to saved Markdown artifacts.
	ExtensionMarkdown = ".md"
	// ExtensionCSV is appended to saved CSV artifacts.
	ExtensionCSV = ".csv"
	// ExtensionXLSX is appended to saved spreadsheet artifacts.
	ExtensionXLSX = ".xlsx"

	// DefaultOutputDirectory receives saved artifacts when no directory is configured.
	DefaultOutputDirectory = "output"
)

// Artifacts records the files produced by a save operation.
// Empty fields mean the corresponding artifact was not written.
type Artifacts struct {
	JSONPath     string `json:"jsonPath,omitempty"`
	MarkdownPath string `json:"markdownPath,omitempty"`
	TablePath    string `json:"tablePath,omitempty"`
}

// ToolDescriptor summarizes a tool advertised by the MCP server.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ResourceDescriptor summarizes a resource advertised by the MCP server.
type ResourceDescriptor struct {
	URI      string `json:"uri"`
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}
