package normalize

import (
	"log/slog"

	"github.com/jerryzhao173985/ccr/internal/types"
)

// noOutputMarker renders a tool result that produced nothing.
const noOutputMarker = "[No output]"

// Strict projects every message's content into the strict wire shape: a
// non-empty array of input/output tagged text blocks with every text field
// defined. Messages already in the strict shape pass through unchanged, so
// the projection is idempotent.
func Strict(messages []types.Message) {
	for i := range messages {
		strictMessage(&messages[i])
	}
	revalidate(messages)
}

func strictMessage(msg *types.Message) {
	tag := types.BlockInputText
	if msg.Role == types.RoleAssistant {
		tag = types.BlockOutputText
	}

	var blocks []types.ContentBlock
	switch msg.Content.Kind {
	case types.ContentText:
		blocks = []types.ContentBlock{textForRole(msg, tag, msg.Content.Text)}
	case types.ContentBlocks:
		if allStrict(msg.Content.Blocks) {
			msg.Content.Blocks = ensureNonEmpty(msg.Content.Blocks, tag)
			return
		}
		for _, b := range msg.Content.Blocks {
			blocks = append(blocks, projectBlock(msg, tag, b))
		}
	default:
		// Absent content should not survive the loose pass; heal anyway.
		slog.Warn("normalize.anomaly", "kind", "absent_in_strict_pass", "role", msg.Role)
		blocks = []types.ContentBlock{textForRole(msg, tag, "")}
	}

	// Tool invocations become visible text for providers that cannot carry
	// structured calls, concatenated after any existing text.
	if msg.Role == types.RoleAssistant {
		for _, tc := range msg.ToolCalls {
			blocks = append(blocks, types.TypedTextBlock(tag, renderToolCall(tc.Name, tc.ID)))
		}
	}

	msg.Content = types.ContentValue{Kind: types.ContentBlocks, Blocks: ensureNonEmpty(blocks, tag)}
}

// textForRole wraps plain text, folding a tool-role payload into the tool
// result rendering so the call id correspondence stays visible downstream.
func textForRole(msg *types.Message, tag, text string) types.ContentBlock {
	if msg.Role == types.RoleTool {
		return types.TypedTextBlock(tag, renderToolResult(msg.ToolCallID, text))
	}
	return types.TypedTextBlock(tag, text)
}

func projectBlock(msg *types.Message, tag string, b types.ContentBlock) types.ContentBlock {
	switch b.Type {
	case types.BlockToolUse:
		return types.TypedTextBlock(tag, renderToolCall(b.Name, b.ID))
	case types.BlockToolResult:
		id := b.ToolUseID
		if id == "" {
			id = msg.ToolCallID
		}
		return types.TypedTextBlock(types.BlockInputText, renderToolResult(id, b.ResultOrEmpty()))
	default:
		return types.TypedTextBlock(tag, b.TextOrEmpty())
	}
}

func renderToolCall(name, id string) string {
	return "[Tool: " + name + " (" + id + ")]"
}

func renderToolResult(id, content string) string {
	if content == "" {
		content = noOutputMarker
	}
	return "[Tool Result " + id + "]\n" + content
}

func allStrict(blocks []types.ContentBlock) bool {
	if len(blocks) == 0 {
		return false
	}
	for _, b := range blocks {
		if b.Type != types.BlockInputText && b.Type != types.BlockOutputText {
			return false
		}
		if b.Text == nil {
			return false
		}
	}
	return true
}

func ensureNonEmpty(blocks []types.ContentBlock, tag string) []types.ContentBlock {
	if len(blocks) == 0 {
		return []types.ContentBlock{types.TypedTextBlock(tag, "")}
	}
	return blocks
}

// revalidate rescans the whole sequence once more after projection. A
// malformed upstream collaborator must never let a null escape to the wire,
// so any hole that slipped through is corrected here rather than trusted to
// earlier steps.
func revalidate(messages []types.Message) {
	for i := range messages {
		msg := &messages[i]
		if msg.Content.Kind != types.ContentBlocks || len(msg.Content.Blocks) == 0 {
			slog.Warn("normalize.anomaly", "kind", "empty_strict_content", "role", msg.Role)
			tag := types.BlockInputText
			if msg.Role == types.RoleAssistant {
				tag = types.BlockOutputText
			}
			msg.Content = types.BlocksContent(types.TypedTextBlock(tag, ""))
			continue
		}
		for j := range msg.Content.Blocks {
			if msg.Content.Blocks[j].Text == nil {
				slog.Warn("normalize.anomaly", "kind", "null_strict_text", "role", msg.Role)
				empty := ""
				msg.Content.Blocks[j].Text = &empty
			}
		}
	}
}
