package core

import "github.com/google/uuid"

// EventKind discriminates the units of observable progress emitted on the
// streaming channel.
type EventKind string

const (
	// EventToken carries a fragment of streamed text.
	EventToken EventKind = "token"
	// EventToolStatus announces tool lifecycle transitions and the terminal
	// think status (which carries a should_act metadata flag).
	EventToolStatus EventKind = "tool_status"
	// EventToolOutput carries structured (non textual) tool output in its
	// metadata map.
	EventToolOutput EventKind = "tool_output"
	// EventStep marks the beginning of a step in the outer loop.
	EventStep EventKind = "step"
	// EventFinal marks the end of a run.
	EventFinal EventKind = "final"
	// EventError reports a recovered failure.
	EventError EventKind = "error"
)

// Event is one emission on the streaming channel. Events for a single tool
// invocation are produced in a strict order; invocations themselves execute
// sequentially, so the stream as a whole is totally ordered per step.
type Event struct {
	Kind    EventKind `json:"type"`
	Content string    `json:"content,omitempty"`
	// MessageType tags the source (tool name, agent name).
	MessageType string `json:"message_type,omitempty"`
	// MessageID correlates the event to a tool invocation.
	MessageID  string         `json:"message_id,omitempty"`
	Step       int            `json:"step,omitempty"`
	TotalSteps int            `json:"total_steps,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewTokenEvent creates a token event for one text fragment.
func NewTokenEvent(content string, step, totalSteps int) Event {
	return Event{Kind: EventToken, Content: content, Step: step, TotalSteps: totalSteps}
}

// NewStatusEvent creates a tool_status event.
func NewStatusEvent(content string, step, totalSteps int) Event {
	return Event{Kind: EventToolStatus, Content: content, Step: step, TotalSteps: totalSteps}
}

// NewOutputEvent creates a tool_output event whose payload lives entirely in
// the metadata map; its text content is empty by contract.
func NewOutputEvent(messageType, messageID string, step, totalSteps int, metadata map[string]any) Event {
	return Event{
		Kind:        EventToolOutput,
		MessageType: messageType,
		MessageID:   messageID,
		Step:        step,
		TotalSteps:  totalSteps,
		Metadata:    metadata,
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(content string, step, totalSteps int) Event {
	return Event{Kind: EventError, Content: content, Step: step, TotalSteps: totalSteps}
}

// NewStepEvent marks the start of step number step.
func NewStepEvent(content string, step, totalSteps int) Event {
	return Event{Kind: EventStep, Content: content, Step: step, TotalSteps: totalSteps}
}

// NewFinalEvent marks the end of a run.
func NewFinalEvent() Event { return Event{Kind: EventFinal} }

// NewID generates a unique identifier for tool calls and correlation.
func NewID() string { return uuid.NewString() }
