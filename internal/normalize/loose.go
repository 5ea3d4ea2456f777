// Package normalize guarantees message content is structurally valid. The
// loose pass makes every content field present; the strict pass projects
// content into the non-empty block-typed shape some providers require.
// Both passes are total and idempotent and never fail: anything unexpected
// found inside content is logged and healed in place.
package normalize

import (
	"log/slog"
	"strings"

	"github.com/jerryzhao173985/ccr/internal/types"
)

// ContinuationMarker stands in for an absent assistant turn that carries
// neither text nor tool calls.
const ContinuationMarker = "[continuing]"

// Loose rewrites messages in place so no content is left absent. Empty
// string is a valid terminal value and is never rewritten further.
func Loose(messages []types.Message) {
	for i := range messages {
		looseMessage(&messages[i])
	}
}

func looseMessage(msg *types.Message) {
	switch msg.Content.Kind {
	case types.ContentAbsent:
		msg.Content = types.TextContent(synthesizeText(msg))
	case types.ContentBlocks:
		msg.Content.Blocks = looseBlocks(msg.Content.Blocks)
	}
}

// synthesizeText picks the loose-shape replacement for absent content.
// A tool-calling assistant turn gets a description of the action so the
// "action, not speech" intent survives; everything else degrades to the
// empty string or the continuation marker.
func synthesizeText(msg *types.Message) string {
	if msg.Role == types.RoleAssistant {
		if len(msg.ToolCalls) > 0 {
			names := make([]string, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				names = append(names, tc.Name)
			}
			return "Executing tools: " + strings.Join(names, ", ")
		}
		return ContinuationMarker
	}
	return ""
}

// looseBlocks drops elements with no recognizable shape and coerces null
// fields inside typed blocks to empty strings. Coercion happens in place so
// tool-call/tool-result correspondence by position or id is not disturbed.
func looseBlocks(blocks []types.ContentBlock) []types.ContentBlock {
	out := blocks[:0]
	for _, b := range blocks {
		switch b.Type {
		case types.BlockText, types.BlockInputText, types.BlockOutputText:
			if b.Text == nil {
				slog.Warn("normalize.anomaly", "kind", "null_text_block")
				empty := ""
				b.Text = &empty
			}
			out = append(out, b)
		case types.BlockToolUse:
			out = append(out, b)
		case types.BlockToolResult:
			if b.Result == nil {
				slog.Warn("normalize.anomaly", "kind", "null_tool_result")
				empty := ""
				b.Result = &empty
			}
			out = append(out, b)
		default:
			slog.Warn("normalize.anomaly", "kind", "malformed_block", "type", b.Type)
		}
	}
	if len(out) == 0 {
		out = append(out, types.TextBlock(""))
	}
	return out
}
