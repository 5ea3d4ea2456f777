// Package subagent detects and strips the inline per-turn routing override
// that clients embed in message text.
package subagent

import (
	"strings"

	"github.com/jerryzhao173985/ccr/internal/types"
)

// TagName is the wire constant agreed with clients. The directive looks like
// <CCR-SUBAGENT-MODEL>provider,model</CCR-SUBAGENT-MODEL> and may appear
// anywhere in the text.
const TagName = "CCR-SUBAGENT-MODEL"

var (
	openTag  = "<" + TagName + ">"
	closeTag = "</" + TagName + ">"
)

// Match is the result of scanning one piece of text.
type Match struct {
	Found    bool
	Provider string
	Model    string
	// Remaining is the text with the directive and surrounding whitespace
	// removed. When Found is false it is the input untouched.
	Remaining string
}

// Extract scans text for the routing directive. Any malformation (missing
// comma, unmatched delimiter, empty provider or model) yields Found=false
// and the original text. Re-applying Extract to stripped text is a no-op.
func Extract(text string) Match {
	miss := Match{Remaining: text}

	start := strings.Index(text, openTag)
	if start < 0 {
		return miss
	}
	rest := text[start+len(openTag):]
	end := strings.Index(rest, closeTag)
	if end < 0 {
		return miss
	}

	pair := rest[:end]
	comma := strings.Index(pair, ",")
	if comma < 0 {
		return miss
	}
	provider := strings.TrimSpace(pair[:comma])
	model := strings.TrimSpace(pair[comma+1:])
	if provider == "" || model == "" {
		return miss
	}

	before := text[:start]
	after := rest[end+len(closeTag):]
	remaining := strings.TrimSpace(before) + strings.TrimSpace(after)
	if strings.TrimSpace(before) != "" && strings.TrimSpace(after) != "" {
		remaining = strings.TrimSpace(before) + " " + strings.TrimSpace(after)
	}

	return Match{
		Found:     true,
		Provider:  provider,
		Model:     model,
		Remaining: remaining,
	}
}

// ExtractFromMessage scans a message's content. Plain text is scanned
// directly; block content is scanned per text block, first match wins, and
// only the matching block is mutated. On a match the stripped content is
// written back into the message, since the directive must not reach the
// upstream provider as text.
func ExtractFromMessage(msg *types.Message) Match {
	if msg == nil {
		return Match{}
	}

	switch msg.Content.Kind {
	case types.ContentText:
		m := Extract(msg.Content.Text)
		if m.Found {
			msg.Content = types.TextContent(m.Remaining)
		}
		return m
	case types.ContentBlocks:
		for i := range msg.Content.Blocks {
			b := &msg.Content.Blocks[i]
			if b.Type != types.BlockText || b.Text == nil {
				continue
			}
			m := Extract(*b.Text)
			if m.Found {
				stripped := m.Remaining
				b.Text = &stripped
				return m
			}
		}
	}
	return Match{}
}
