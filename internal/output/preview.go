// Package output renders normalized results for the console.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pimcabanlit/firecrawl-cli/internal/normalize"
)

const (
	// DefaultItemPreviewLimit truncates per-item previews.
	DefaultItemPreviewLimit = 500
	// DefaultPayloadPreviewLimit truncates single-payload previews.
	DefaultPayloadPreviewLimit = 1000

	jsonIndent         = "  "
	truncationSuffix   = "..."
	itemHeadingFormat  = "Content %d:\n"
	indentedLineFormat = "  %s\n"
)

// RenderJSON encodes the serializable reduction as indented JSON with HTML
// escaping disabled.
func RenderJSON(value *normalize.Value) (string, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", jsonIndent)
	if encodeErr := encoder.Encode(value.Serializable()); encodeErr != nil {
		return "", fmt.Errorf("render JSON: %w", encodeErr)
	}
	return buffer.String(), nil
}

// Truncate shortens text to at most limit bytes, appending an ellipsis when
// anything was cut. The cut never splits a UTF-8 rune. Non-positive limits
// disable truncation.
func Truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncationSuffix
}

// RenderPreview writes a human-readable preview of the result. Content items
// are listed with their text truncated per item; results without content
// items fall back to a truncated JSON rendering.
func RenderPreview(destination io.Writer, value *normalize.Value, itemLimit int) error {
	if itemLimit <= 0 {
		itemLimit = DefaultItemPreviewLimit
	}

	if rows, hasRows := value.Rows(); hasRows {
		for rowIndex, row := range rows {
			if _, writeErr := fmt.Fprintf(destination, itemHeadingFormat, rowIndex+1); writeErr != nil {
				return writeErr
			}
			if _, writeErr := fmt.Fprintf(destination, indentedLineFormat, Truncate(row, itemLimit)); writeErr != nil {
				return writeErr
			}
		}
		return nil
	}

	if text, hasText := value.Text(); hasText {
		_, writeErr := fmt.Fprintln(destination, Truncate(text, DefaultPayloadPreviewLimit))
		return writeErr
	}

	renderedJSON, renderErr := RenderJSON(value)
	if renderErr != nil {
		return renderErr
	}
	_, writeErr := fmt.Fprintln(destination, Truncate(renderedJSON, DefaultPayloadPreviewLimit))
	return writeErr
}

// PreviewText returns the text used for clipboard copies: the text reduction
// when present, the JSON rendering otherwise.
func PreviewText(value *normalize.Value) (string, error) {
	if text, hasText := value.Text(); hasText {
		return text, nil
	}
	return RenderJSON(value)
}
