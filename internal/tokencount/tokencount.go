// Package tokencount approximates the token footprint of a request for
// threshold routing. Counts come from the o200k_base vocabulary when it is
// available and degrade to a byte-length heuristic when it is not, so the
// pipeline always gets a usable estimate. Estimates are not billing-grade.
package tokencount

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/jerryzhao173985/ccr/internal/types"
)

// Fixed structural overheads, in tokens. Each message and tool definition
// costs a few tokens of framing on the wire beyond its visible text.
const (
	perMessageOverhead = 3
	perToolOverhead    = 8
)

var codecOnce = sync.OnceValues(func() (tokenizer.Codec, error) {
	return tokenizer.Get(tokenizer.O200kBase)
})

// Estimate sums the approximate token count of all textual content in the
// messages and tool definitions. Absent content contributes zero. The
// result is monotonic: appending non-empty content never lowers it.
func Estimate(messages []types.Message, tools []types.ToolDefinition) int {
	total := 0

	for i := range messages {
		msg := &messages[i]
		total += perMessageOverhead
		total += countText(string(msg.Role))

		switch msg.Content.Kind {
		case types.ContentText:
			total += countText(msg.Content.Text)
		case types.ContentBlocks:
			for _, b := range msg.Content.Blocks {
				switch b.Type {
				case types.BlockText, types.BlockInputText, types.BlockOutputText:
					total += countText(b.TextOrEmpty())
				case types.BlockToolUse:
					total += countText(b.Name)
					total += countText(string(b.Input))
				case types.BlockToolResult:
					total += countText(b.ResultOrEmpty())
				}
			}
		}

		for _, tc := range msg.ToolCalls {
			total += countText(tc.Name)
			total += countText(tc.Arguments)
		}
	}

	for _, tool := range tools {
		total += perToolOverhead
		total += countText(tool.Name)
		total += countText(tool.Description)
		total += countText(string(tool.Parameters))
	}

	return total
}

// countText never fails: tokenizer errors fall back to the byte heuristic.
func countText(s string) int {
	if s == "" {
		return 0
	}
	enc, err := codecOnce()
	if err != nil {
		return fallbackCount(s)
	}
	ids, _, err := enc.Encode(s)
	if err != nil {
		return fallbackCount(s)
	}
	return len(ids)
}

// fallbackCount approximates one token per four bytes, with a floor of one
// so non-empty text always counts.
func fallbackCount(s string) int {
	n := len(s) / 4
	if n == 0 {
		n = 1
	}
	return n
}
