// Package agents runs the tool-calling conversation loop and streams its
// events to a client.
package agents

import (
	"context"

	"github.com/va6996/tripchat/tools"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	// RoleTool carries the outcomes of one tool batch. It never comes from
	// the client.
	RoleTool Role = "tool"
)

// Message is one entry of the conversation history.
type Message struct {
	Role        Role          `json:"role"`
	Content     string        `json:"content"`
	ToolCalls   []ToolCall    `json:"toolCalls,omitempty"`
	ToolResults []ToolOutcome `json:"toolResults,omitempty"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// ToolOutcome pairs a ToolCall with its envelope.
type ToolOutcome struct {
	CallID string         `json:"callId"`
	Name   string         `json:"name"`
	Output tools.Envelope `json:"output"`
}

// ModelRequest is everything the model sees in one AgentTurn.
type ModelRequest struct {
	System   string
	Messages []Message
	Tools    []tools.Definition
}

// ModelResponse is either final text or a batch of tool calls (possibly
// with some text alongside).
type ModelResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// Model is a language model that can stream text and request tools.
// onToken is called with each text fragment as it arrives.
type Model interface {
	Generate(ctx context.Context, req ModelRequest, onToken func(string)) (*ModelResponse, error)
}
