// Package normalize converts heterogeneous MCP tool results into a tagged
// value tree with two reductions: a JSON-serializable form and a text form.
package normalize

import (
	"encoding/base64"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Kind discriminates the variants of a normalized Value.
type Kind int

const (
	// KindText is a plain text payload.
	KindText Kind = iota
	// KindItems is an ordered sequence of values.
	KindItems
	// KindMapping is a keyed collection of values with stable key order.
	KindMapping
	// KindPrimitive is a scalar that carries no text (number, bool, nil).
	KindPrimitive
)

const (
	textFieldName    = "text"
	contentFieldName = "content"
	// fragmentSeparator joins text fragments in the text reduction.
	fragmentSeparator = "\n\n"
)

// Value is one node of a normalized tool result. Exactly one variant is
// populated, selected by the kind tag.
type Value struct {
	kind      Kind
	text      string
	items     []*Value
	keys      []string
	fields    map[string]*Value
	primitive any
}

// NewText constructs a text node.
func NewText(text string) *Value {
	return &Value{kind: KindText, text: text}
}

// NewItems constructs a sequence node from the provided elements.
func NewItems(items ...*Value) *Value {
	return &Value{kind: KindItems, items: items}
}

// NewMapping constructs an empty mapping node.
func NewMapping() *Value {
	return &Value{kind: KindMapping, fields: map[string]*Value{}}
}

// NewPrimitive constructs a scalar node.
func NewPrimitive(value any) *Value {
	return &Value{kind: KindPrimitive, primitive: value}
}

// Kind reports the variant tag of the value.
func (value *Value) Kind() Kind {
	return value.kind
}

// SetField adds or replaces a mapping field, preserving insertion order for
// new keys. It is a no-op on non-mapping values.
func (value *Value) SetField(key string, child *Value) *Value {
	if value.kind != KindMapping || child == nil {
		return value
	}
	if _, exists := value.fields[key]; !exists {
		value.keys = append(value.keys, key)
	}
	value.fields[key] = child
	return value
}

// Field returns the named mapping field.
func (value *Value) Field(key string) (*Value, bool) {
	if value == nil || value.kind != KindMapping {
		return nil, false
	}
	child, exists := value.fields[key]
	return child, exists
}

// Append adds elements to a sequence node. It is a no-op on non-sequence values.
func (value *Value) Append(items ...*Value) *Value {
	if value.kind != KindItems {
		return value
	}
	value.items = append(value.items, items...)
	return value
}

// Items returns the elements of a sequence node.
func (value *Value) Items() []*Value {
	if value == nil || value.kind != KindItems {
		return nil
	}
	return value.items
}

// FromToolResult normalizes an MCP call result. Content items become a
// sequence under the content key; the error flag and any structured payload
// are carried alongside.
func FromToolResult(result *mcp.CallToolResult) *Value {
	if result == nil {
		return NewMapping()
	}
	normalized := NewMapping()
	if len(result.Content) > 0 {
		contentItems := NewItems()
		for _, contentItem := range result.Content {
			contentItems.Append(fromContentItem(contentItem))
		}
		normalized.SetField(contentFieldName, contentItems)
	}
	if result.IsError {
		normalized.SetField("isError", NewPrimitive(true))
	}
	if result.StructuredContent != nil {
		normalized.SetField("structuredContent", FromAny(result.StructuredContent))
	}
	return normalized
}

// fromContentItem converts one typed MCP content item into a mapping that
// mirrors the wire shape: a type tag plus the payload fields.
func fromContentItem(contentItem mcp.Content) *Value {
	switch typed := contentItem.(type) {
	case *mcp.TextContent:
		return NewMapping().
			SetField("type", NewPrimitive("text")).
			SetField(textFieldName, NewText(typed.Text))
	case *mcp.ImageContent:
		return NewMapping().
			SetField("type", NewPrimitive("image")).
			SetField("mimeType", NewPrimitive(typed.MIMEType)).
			SetField("data", NewPrimitive(base64.StdEncoding.EncodeToString(typed.Data)))
	case *mcp.AudioContent:
		return NewMapping().
			SetField("type", NewPrimitive("audio")).
			SetField("mimeType", NewPrimitive(typed.MIMEType)).
			SetField("data", NewPrimitive(base64.StdEncoding.EncodeToString(typed.Data)))
	case *mcp.EmbeddedResource:
		resourceMapping := NewMapping().SetField("type", NewPrimitive("resource"))
		if typed.Resource != nil {
			resourceMapping.SetField("uri", NewPrimitive(typed.Resource.URI))
			if typed.Resource.MIMEType != "" {
				resourceMapping.SetField("mimeType", NewPrimitive(typed.Resource.MIMEType))
			}
			if typed.Resource.Text != "" {
				resourceMapping.SetField(textFieldName, NewText(typed.Resource.Text))
			}
		}
		return resourceMapping
	default:
		return NewMapping().SetField("type", NewPrimitive("unknown"))
	}
}

// FromAny normalizes decoded JSON shapes. Mapping keys are ordered
// lexicographically because Go map iteration carries no order.
func FromAny(value any) *Value {
	switch typed := value.(type) {
	case nil:
		return NewPrimitive(nil)
	case *Value:
		return typed
	case string:
		return NewText(typed)
	case []any:
		sequence := NewItems()
		for _, element := range typed {
			sequence.Append(FromAny(element))
		}
		return sequence
	case map[string]any:
		fieldNames := make([]string, 0, len(typed))
		for fieldName := range typed {
			fieldNames = append(fieldNames, fieldName)
		}
		sort.Strings(fieldNames)
		mapping := NewMapping()
		for _, fieldName := range fieldNames {
			mapping.SetField(fieldName, FromAny(typed[fieldName]))
		}
		return mapping
	default:
		return NewPrimitive(typed)
	}
}

// Serializable reduces the value to plain maps, slices, strings, and scalars
// suitable for JSON encoding. The reduction is idempotent: normalizing its
// own output yields an equal structure.
func (value *Value) Serializable() any {
	if value == nil {
		return nil
	}
	switch value.kind {
	case KindText:
		return value.text
	case KindItems:
		serialized := make([]any, 0, len(value.items))
		for _, element := range value.items {
			serialized = append(serialized, element.Serializable())
		}
		return serialized
	case KindMapping:
		serialized := make(map[string]any, len(value.fields))
		for _, fieldName := range value.keys {
			serialized[fieldName] = value.fields[fieldName].Serializable()
		}
		return serialized
	default:
		return value.primitive
	}
}

// Text reduces the value to its embedded text fragments joined by blank
// lines, in traversal order. The second return is false when the structure
// carries no text anywhere.
//
// Rule for mappings: a text field short-circuits the node, including any
// sibling content field; without a text field only the content field is
// descended; mappings with neither contribute nothing. This pins down the
// probing-order ambiguity of ad hoc attribute inspection as an explicit rule.
func (value *Value) Text() (string, bool) {
	var fragments []string
	value.collectText(&fragments)
	if len(fragments) == 0 {
		return "", false
	}
	return strings.Join(fragments, fragmentSeparator), true
}

func (value *Value) collectText(fragments *[]string) {
	if value == nil {
		return
	}
	switch value.kind {
	case KindText:
		*fragments = append(*fragments, value.text)
	case KindItems:
		for _, element := range value.items {
			element.collectText(fragments)
		}
	case KindMapping:
		if textField, hasText := value.fields[textFieldName]; hasText {
			if fragment, ok := textField.asString(); ok {
				*fragments = append(*fragments, fragment)
				return
			}
		}
		if contentField, hasContent := value.fields[contentFieldName]; hasContent {
			contentField.collectText(fragments)
		}
	}
}

// asString reports the value as a string when it directly holds one.
func (value *Value) asString() (string, bool) {
	if value == nil {
		return "", false
	}
	switch value.kind {
	case KindText:
		return value.text, true
	case KindPrimitive:
		text, isString := value.primitive.(string)
		return text, isString
	default:
		return "", false
	}
}

// Rows extracts one table row per content item. It requires the value to
// expose a non-empty content sequence whose items all carry a text field;
// any other shape reports false.
func (value *Value) Rows() ([]string, bool) {
	contentField, hasContent := value.Field(contentFieldName)
	if !hasContent || contentField.kind != KindItems || len(contentField.items) == 0 {
		return nil, false
	}
	rows := make([]string, 0, len(contentField.items))
	for _, contentItem := range contentField.items {
		var row string
		var found bool
		switch contentItem.kind {
		case KindText:
			row, found = contentItem.text, true
		case KindMapping:
			if textField, hasText := contentItem.fields[textFieldName]; hasText {
				row, found = textField.asString()
			}
		}
		if !found {
			return nil, false
		}
		rows = append(rows, row)
	}
	return rows, true
}
