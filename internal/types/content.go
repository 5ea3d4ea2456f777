package types

import "encoding/json"

// ContentKind discriminates the ContentValue union.
type ContentKind uint8

// The three shapes message content can arrive in.
const (
	ContentAbsent ContentKind = iota
	ContentText
	ContentBlocks
)

// ContentValue is message content in the loose wire shape: absent (null or
// missing), a plain string, or an array of typed blocks. The zero value is
// Absent.
type ContentValue struct {
	Kind   ContentKind
	Text   string
	Blocks []ContentBlock
}

// TextContent wraps a plain string as content.
func TextContent(s string) ContentValue {
	return ContentValue{Kind: ContentText, Text: s}
}

// BlocksContent wraps a block list as content.
func BlocksContent(blocks ...ContentBlock) ContentValue {
	return ContentValue{Kind: ContentBlocks, Blocks: blocks}
}

// IsAbsent reports whether the content carries no value at all.
// An empty string or an empty block list is not absent.
func (c ContentValue) IsAbsent() bool {
	return c.Kind == ContentAbsent
}

// UnmarshalJSON decodes the loose wire shape. A JSON null maps to Absent;
// anything that is neither a string nor an array is also treated as Absent
// so that a malformed field can never abort decoding of the whole request.
func (c *ContentValue) UnmarshalJSON(data []byte) error {
	trimmed := string(data)
	if trimmed == "" || trimmed == "null" {
		*c = ContentValue{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ContentValue{Kind: ContentText, Text: s}
		return nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err == nil {
		*c = ContentValue{Kind: ContentBlocks, Blocks: blocks}
		return nil
	}

	*c = ContentValue{}
	return nil
}

// MarshalJSON encodes Absent as null, preserving the loose shape on re-emit.
func (c ContentValue) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ContentText:
		return json.Marshal(c.Text)
	case ContentBlocks:
		if c.Blocks == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.Blocks)
	default:
		return []byte("null"), nil
	}
}

// Block type discriminators. The plain kinds arrive from clients; the
// input/output kinds only exist after the strict projection.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
	BlockInputText  = "input_text"
	BlockOutputText = "output_text"
)

// ContentBlock is one element of block-shaped content. Text and Result are
// pointers so the normalizer can tell a JSON null from an empty string; a
// null array element decodes to the zero block (empty Type) and is treated
// as malformed.
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      *string         `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Result    *string         `json:"content,omitempty"`
}

// TextBlock builds a plain text block.
func TextBlock(s string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: &s}
}

// TypedTextBlock builds a text block with an explicit type tag.
func TypedTextBlock(kind, s string) ContentBlock {
	return ContentBlock{Type: kind, Text: &s}
}

// UnmarshalJSON tolerates null elements inside a content array: they decode
// to the zero block instead of failing the surrounding message.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	trimmed := string(data)
	if trimmed == "" || trimmed == "null" {
		*b = ContentBlock{}
		return nil
	}
	type alias ContentBlock
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		*b = ContentBlock{}
		return nil
	}
	*b = ContentBlock(a)
	return nil
}

// TextOrEmpty returns the block text, treating a missing field as "".
func (b ContentBlock) TextOrEmpty() string {
	if b.Text == nil {
		return ""
	}
	return *b.Text
}

// ResultOrEmpty returns the tool result payload, treating a missing field as "".
func (b ContentBlock) ResultOrEmpty() string {
	if b.Result == nil {
		return ""
	}
	return *b.Result
}
