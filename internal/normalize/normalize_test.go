package normalize_test

import (
	"reflect"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pimcabanlit/firecrawl-cli/internal/normalize"
)

func contentMapping(text string) *normalize.Value {
	return normalize.NewMapping().
		SetField("type", normalize.NewPrimitive("text")).
		SetField("text", normalize.NewText(text))
}

func TestTextReduction(t *testing.T) {
	testCases := []struct {
		name       string
		value      *normalize.Value
		expectText string
		expectOK   bool
	}{
		{
			name: "content_items_join_with_blank_line",
			value: normalize.NewMapping().SetField("content",
				normalize.NewItems(contentMapping("A"), contentMapping("B"))),
			expectText: "A\n\nB",
			expectOK:   true,
		},
		{
			name: "no_text_anywhere",
			value: normalize.NewMapping().SetField("content",
				normalize.NewItems(normalize.NewMapping().SetField("type", normalize.NewPrimitive("image")))),
			expectText: "",
			expectOK:   false,
		},
		{
			name:       "primitives_carry_no_text",
			value:      normalize.NewItems(normalize.NewPrimitive(42), normalize.NewPrimitive(true)),
			expectText: "",
			expectOK:   false,
		},
		{
			name:       "plain_string_value",
			value:      normalize.NewText("hello"),
			expectText: "hello",
			expectOK:   true,
		},
		{
			name: "text_short_circuits_sibling_content",
			value: normalize.NewMapping().
				SetField("text", normalize.NewText("outer")).
				SetField("content", normalize.NewItems(contentMapping("inner"))),
			expectText: "outer",
			expectOK:   true,
		},
		{
			name: "string_content_field",
			value: normalize.NewMapping().
				SetField("content", normalize.NewText("body")),
			expectText: "body",
			expectOK:   true,
		},
		{
			name: "mapping_without_text_or_content_contributes_nothing",
			value: normalize.NewMapping().
				SetField("url", normalize.NewText("https://example.com")),
			expectText: "",
			expectOK:   false,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actualText, actualOK := testCase.value.Text()
			if actualOK != testCase.expectOK {
				t.Fatalf("expected ok=%v, got %v", testCase.expectOK, actualOK)
			}
			if actualText != testCase.expectText {
				t.Fatalf("expected text %q, got %q", testCase.expectText, actualText)
			}
		})
	}
}

func TestSerializableIsIdempotent(t *testing.T) {
	original := map[string]any{
		"content": []any{
			map[string]any{"text": "A"},
			map[string]any{"text": "B", "score": 0.5},
		},
		"meta": map[string]any{"count": 2.0, "done": true},
	}

	firstPass := normalize.FromAny(original).Serializable()
	secondPass := normalize.FromAny(firstPass).Serializable()

	if !reflect.DeepEqual(firstPass, secondPass) {
		t.Fatalf("serializable reduction is not idempotent:\nfirst:  %#v\nsecond: %#v", firstPass, secondPass)
	}
}

func TestFromToolResultContentItems(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "A"},
			&mcp.TextContent{Text: "B"},
		},
	}

	normalized := normalize.FromToolResult(result)

	text, ok := normalized.Text()
	if !ok || text != "A\n\nB" {
		t.Fatalf("unexpected text reduction: %q (ok=%v)", text, ok)
	}

	rows, ok := normalized.Rows()
	if !ok {
		t.Fatalf("expected rows from content sequence")
	}
	if !reflect.DeepEqual(rows, []string{"A", "B"}) {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestFromToolResultImageContent(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.ImageContent{MIMEType: "image/png", Data: []byte("testdata")},
		},
	}

	normalized := normalize.FromToolResult(result)
	serialized, isMapping := normalized.Serializable().(map[string]any)
	if !isMapping {
		t.Fatalf("expected mapping serialization, got %T", normalized.Serializable())
	}
	contentItems, isSequence := serialized["content"].([]any)
	if !isSequence || len(contentItems) != 1 {
		t.Fatalf("expected one content item, got %#v", serialized["content"])
	}
	item := contentItems[0].(map[string]any)
	if item["type"] != "image" || item["mimeType"] != "image/png" {
		t.Fatalf("unexpected image item: %#v", item)
	}
	if _, ok := normalized.Text(); ok {
		t.Fatalf("image content must not produce a text reduction")
	}
}

func TestRowsRejectsOtherShapes(t *testing.T) {
	testCases := []struct {
		name  string
		value *normalize.Value
	}{
		{name: "no_content_field", value: normalize.NewMapping().SetField("data", normalize.NewText("x"))},
		{name: "empty_content", value: normalize.NewMapping().SetField("content", normalize.NewItems())},
		{name: "content_not_sequence", value: normalize.NewMapping().SetField("content", normalize.NewText("x"))},
		{
			name: "item_without_text",
			value: normalize.NewMapping().SetField("content", normalize.NewItems(
				contentMapping("A"),
				normalize.NewMapping().SetField("type", normalize.NewPrimitive("image")),
			)),
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if rows, ok := testCase.value.Rows(); ok {
				t.Fatalf("expected no rows, got %#v", rows)
			}
		})
	}
}

func TestFromAnyOrdersMappingKeys(t *testing.T) {
	normalized := normalize.FromAny(map[string]any{"b": 1.0, "a": 2.0, "c": 3.0})
	serialized := normalized.Serializable().(map[string]any)
	if len(serialized) != 3 {
		t.Fatalf("expected three keys, got %#v", serialized)
	}
	for _, key := range []string{"a", "b", "c"} {
		if _, exists := serialized[key]; !exists {
			t.Fatalf("missing key %q in %#v", key, serialized)
		}
	}
}
