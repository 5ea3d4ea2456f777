// Package types defines the request model shared by the routing engine,
// the content normalizer, and the HTTP boundary. A Request is created per
// inbound call, mutated in place through the pipeline, and discarded after
// handoff; nothing here is shared across requests.
package types

import "encoding/json"

// Role identifies the author of a message.
type Role string

// Message roles understood by the pipeline.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Request is the inbound chat request as decoded at the API boundary.
type Request struct {
	Model          string           `json:"model,omitempty"`
	Messages       []Message        `json:"messages"`
	Tools          []ToolDefinition `json:"tools,omitempty"`
	ResponseFormat json.RawMessage  `json:"response_format,omitempty"`
	Stream         bool             `json:"stream,omitempty"`
	MaxTokens      int              `json:"max_tokens,omitempty"`

	// Thinking is kept raw: clients send booleans, objects, or nothing at
	// all here, and the engine only cares about presence.
	Thinking json.RawMessage `json:"thinking,omitempty"`
}

// WantsThinking reports whether the request carries an explicit reasoning
// indicator. A literal null or false does not count.
func (r *Request) WantsThinking() bool {
	s := string(r.Thinking)
	return s != "" && s != "null" && s != "false"
}

// Message is a single entry in the conversation history.
type Message struct {
	Role       Role         `json:"role"`
	Content    ContentValue `json:"content"`
	ToolCalls  []ToolCall   `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

// ToolCall is an assistant-issued tool invocation.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// ToolDefinition describes a tool offered to the model.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// DecisionSource identifies which routing rule committed a decision.
type DecisionSource string

// Decision sources, in rule-chain order.
const (
	SourceExplicit       DecisionSource = "explicit"
	SourceCustomScript   DecisionSource = "custom_script"
	SourceSubagentTag    DecisionSource = "subagent_tag"
	SourceTokenThreshold DecisionSource = "token_threshold"
	SourceModelHeuristic DecisionSource = "model_heuristic"
	SourceDefault        DecisionSource = "default"
)

// RoutingDecision is the terminal output of the routing engine.
type RoutingDecision struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Source   DecisionSource `json:"source"`
}
