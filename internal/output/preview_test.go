package output_test

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pimcabanlit/firecrawl-cli/internal/normalize"
	"github.com/pimcabanlit/firecrawl-cli/internal/output"
)

func contentValue(fragments ...string) *normalize.Value {
	contentItems := normalize.NewItems()
	for _, fragment := range fragments {
		contentItems.Append(normalize.NewMapping().
			SetField("type", normalize.NewPrimitive("text")).
			SetField("text", normalize.NewText(fragment)))
	}
	return normalize.NewMapping().SetField("content", contentItems)
}

func TestTruncate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{name: "under_limit", input: "short", limit: 10, expected: "short"},
		{name: "at_limit", input: "exact", limit: 5, expected: "exact"},
		{name: "over_limit", input: "truncate me", limit: 8, expected: "truncate..."},
		{name: "zero_limit_disables", input: "anything", limit: 0, expected: "anything"},
		{name: "multibyte_rune_boundary", input: "naïve", limit: 3, expected: "na..."},
		{name: "multibyte_rune_fits", input: "naïve", limit: 4, expected: "naï..."},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual := output.Truncate(testCase.input, testCase.limit)
			if actual != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, actual)
			}
			if !utf8.ValidString(actual) {
				t.Fatalf("truncated text is not valid UTF-8: %q", actual)
			}
		})
	}
}

func TestRenderPreviewListsContentItems(t *testing.T) {
	var rendered bytes.Buffer
	if previewErr := output.RenderPreview(&rendered, contentValue("first", "second"), 0); previewErr != nil {
		t.Fatalf("unexpected preview error: %v", previewErr)
	}
	preview := rendered.String()
	if !strings.Contains(preview, "Content 1:") || !strings.Contains(preview, "first") {
		t.Fatalf("missing first item in preview: %q", preview)
	}
	if !strings.Contains(preview, "Content 2:") || !strings.Contains(preview, "second") {
		t.Fatalf("missing second item in preview: %q", preview)
	}
}

func TestRenderPreviewFallsBackToJSON(t *testing.T) {
	var rendered bytes.Buffer
	noTextValue := normalize.NewMapping().SetField("count", normalize.NewPrimitive(3))
	if previewErr := output.RenderPreview(&rendered, noTextValue, 0); previewErr != nil {
		t.Fatalf("unexpected preview error: %v", previewErr)
	}
	if !strings.Contains(rendered.String(), "\"count\"") {
		t.Fatalf("expected JSON fallback, got %q", rendered.String())
	}
}

func TestRenderJSONDoesNotEscapeHTML(t *testing.T) {
	markupValue := normalize.NewMapping().SetField("content", normalize.NewText("<em>hi</em>"))
	renderedJSON, renderErr := output.RenderJSON(markupValue)
	if renderErr != nil {
		t.Fatalf("unexpected render error: %v", renderErr)
	}
	if !strings.Contains(renderedJSON, "<em>hi</em>") {
		t.Fatalf("markup was escaped: %q", renderedJSON)
	}
}
