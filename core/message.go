package core

import "time"

// Role identifies the author class of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// MessageCategory classifies a message semantically. It drives which pacing
// transform presents a tool's output and lets formatting layers filter
// messages, but carries no meaning inside the step loop itself.
//
// Category (semantic classification) and MessageType (presentation hint) are
// deliberately two independent enumerations even where their values look
// alike today.
type MessageCategory int

const (
	CategoryNormal MessageCategory = iota
	CategoryTelegram
	CategorySpeakInPerson
	CategoryThought
	CategoryTool
	CategorySystemInstruction
)

// MessageType tags an event or message for frontend display differentiation.
type MessageType string

const (
	MessageTypeSendTelegram  MessageType = "send_telegram_message"
	MessageTypeSpeakInPerson MessageType = "speak_in_person"
	MessageTypeCurrentTime   MessageType = "get_current_time"
	MessageTypeInnerThought  MessageType = "inner_thought"
	MessageTypeSystemNote    MessageType = "system_instruction"
	MessageTypeTerminate     MessageType = "terminate"
)

// FunctionCall names the target function of a tool call together with its
// raw (string encoded) JSON argument payload.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a structured ask, embedded in an assistant message, to run a
// named tool. It is created by the thinker from the model's decision and
// consumed exactly once by the actor.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is one immutable transcript entry. Messages are appended to the
// transcript by the thinker (assistant role) or the actor (tool role) and
// are never mutated or deleted afterwards.
type Message struct {
	Role       Role            `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Speaker    string          `json:"speaker,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Category   MessageCategory `json:"category"`
	// VisibleFor lists the character IDs this message is visible to.
	// Nil means visible to all.
	VisibleFor []string `json:"visible_for_characters,omitempty"`
}

// SystemMessage creates a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Speaker: "system", CreatedAt: time.Now().UTC()}
}

// UserMessage creates a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Speaker: "user", CreatedAt: time.Now().UTC()}
}

// AssistantMessage creates a content-only assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Speaker: "assistant", CreatedAt: time.Now().UTC()}
}

// AssistantToolCallMessage creates an assistant message that requests the
// given tool calls, preserving their order.
func AssistantToolCallMessage(content string, calls []ToolCall) Message {
	m := AssistantMessage(content)
	m.ToolCalls = calls
	return m
}

// ToolMessage creates a tool-result message correlated to a prior tool call.
func ToolMessage(content, toolName, toolCallID string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolName:   toolName,
		ToolCallID: toolCallID,
		CreatedAt:  time.Now().UTC(),
	}
}

// WithSpeaker returns a copy with the speaker identity set.
func (m Message) WithSpeaker(speaker string) Message {
	m.Speaker = speaker
	return m
}

// WithCategory returns a copy with the category tag set.
func (m Message) WithCategory(c MessageCategory) Message {
	m.Category = c
	return m
}

// WithVisibility returns a copy restricted to the given character IDs.
func (m Message) WithVisibility(characterIDs []string) Message {
	m.VisibleFor = characterIDs
	return m
}

// WithTime returns a copy with the creation timestamp set. Agents that run
// against a virtual session clock use this to stamp messages consistently.
func (m Message) WithTime(t time.Time) Message {
	m.CreatedAt = t
	return m
}
