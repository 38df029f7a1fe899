// Package model defines the language-model client boundary: a single ask
// operation that takes the transcript, system messages, tool schemas and a
// tool-choice mode, and returns the model's decision. In streaming mode the
// client additionally invokes a delta callback with text fragments and
// partially-resolved tool calls as they arrive.
package model

import (
	"context"

	"github.com/soragoto/kokoro/core"
)

// ToolChoice governs whether the model must, may, or must not request tools
// on a given step.
type ToolChoice string

const (
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
)

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a minimal JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// ToolCallDelta is a partially-resolved tool call fragment surfaced during
// streaming. Fields fill in incrementally; Name in particular may arrive
// before any arguments.
type ToolCallDelta struct {
	ID        string
	Name      string
	Arguments string
}

// Delta is one streaming fragment: either a piece of assistant text or a
// tool call fragment, never both.
type Delta struct {
	Text     string
	ToolCall *ToolCallDelta
}

// Request is the normalized model input for one think.
type Request struct {
	// Messages is the conversation transcript, oldest first.
	Messages []core.Message
	// SystemMessages are prepended as system instructions.
	SystemMessages []core.Message
	// Tools lists the invocable tool schemas.
	Tools []ToolDefinition
	// ToolChoice selects the tool-choice policy forwarded to the provider.
	ToolChoice ToolChoice
	// Stream requests incremental delivery through OnDelta.
	Stream bool
	// OnDelta receives streaming fragments in arrival order. Ignored when
	// Stream is false. Must not be invoked after AskTool returns.
	OnDelta func(Delta)
}

// Decision is the model's complete output for one turn: free-form reply
// text and/or a set of tool invocation requests.
type Decision struct {
	Content   string
	ToolCalls []core.ToolCall
}

// Client is the asynchronous language-model collaborator consumed by the
// thinker.
type Client interface {
	AskTool(ctx context.Context, req Request) (*Decision, error)
}
