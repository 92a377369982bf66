// Package agentrunner defines the port between the pipeline executor and the
// chat-completion model that powers the agents.
package agentrunner

import "context"

// Chat roles, as the OpenAI-compatible wire format names them.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of a chat exchange. Assistant messages may carry tool
// calls instead of (or alongside) content; tool messages answer one call by
// its ID.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolCall is the model asking for one tool invocation. Args is the raw JSON
// argument object as the model produced it.
type ToolCall struct {
	ID   string
	Name string
	Args string
}

// ToolDef describes a tool the model may call. Parameters is a JSON schema
// object.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Runner executes one chat turn against the model. The returned message is
// the assistant's reply; the caller owns the tool-call loop.
type Runner interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDef) (Message, error)
}
