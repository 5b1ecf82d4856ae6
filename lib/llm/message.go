// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role identifies which of the four message shapes a [Message] has.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// emptyArguments is the argument payload substituted for a tool call
// whose arguments are empty or whitespace.
const emptyArguments = "{}"

// ErrInvalidMessage is returned when a message would carry fields its
// role does not allow, or lacks fields its role requires.
var ErrInvalidMessage = errors.New("llm: invalid message")

// ToolCall is a model-issued request to run a named local tool.
type ToolCall struct {
	// ID correlates the call with the tool result that answers it.
	ID string

	// Name is the registered tool name.
	Name string

	// Arguments is the raw JSON argument text produced by the model.
	// It is not parsed here; the tool parses it.
	Arguments string
}

// NewToolCall builds a ToolCall, normalizing empty or whitespace-only
// arguments to "{}".
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{ID: id, Name: name, Arguments: normalizeArguments(arguments)}
}

func normalizeArguments(arguments string) string {
	if strings.TrimSpace(arguments) == "" {
		return emptyArguments
	}
	return arguments
}

// Message is one element of a conversation. The zero value is not a
// valid message; use the role constructors.
//
// Shapes by role:
//   - system, user: optional text
//   - assistant: optional text plus optional tool calls, at least one
//     of the two present
//   - tool: text plus the id of the tool call it answers
type Message struct {
	role       Role
	content    *string
	toolCalls  []ToolCall
	toolCallID string
}

// SystemMessage returns a system message with the given text.
func SystemMessage(text string) Message {
	return Message{role: RoleSystem, content: &text}
}

// UserMessage returns a user message with the given text.
func UserMessage(text string) Message {
	return Message{role: RoleUser, content: &text}
}

// AssistantMessage returns a text-only assistant message.
func AssistantMessage(text string) Message {
	return Message{role: RoleAssistant, content: &text}
}

// AssistantToolCallMessage returns an assistant message carrying tool
// calls. content may be nil: the tool calls alone make the message
// valid. An empty calls slice is rejected.
func AssistantToolCallMessage(content *string, calls []ToolCall) (Message, error) {
	if len(calls) == 0 {
		return Message{}, fmt.Errorf("%w: assistant tool call message without tool calls", ErrInvalidMessage)
	}
	message := Message{role: RoleAssistant, toolCalls: cloneToolCalls(calls)}
	if content != nil {
		text := *content
		message.content = &text
	}
	return message, nil
}

// ToolResultMessage returns the result of the tool call identified by
// toolCallID.
func ToolResultMessage(toolCallID, text string) Message {
	return Message{role: RoleTool, content: &text, toolCallID: toolCallID}
}

// Role returns the message role.
func (message Message) Role() Role { return message.role }

// Content returns the text content and whether it is present.
func (message Message) Content() (string, bool) {
	if message.content == nil {
		return "", false
	}
	return *message.content, true
}

// Text returns the text content, or "" when absent.
func (message Message) Text() string {
	text, _ := message.Content()
	return text
}

// HasToolCalls reports whether the message is an assistant message
// carrying at least one tool call.
func (message Message) HasToolCalls() bool {
	return len(message.toolCalls) > 0
}

// ToolCalls returns a copy of the tool calls. Nil for every role other
// than assistant, and for text-only assistant messages.
func (message Message) ToolCalls() []ToolCall {
	return cloneToolCalls(message.toolCalls)
}

// ToolCallID returns the id of the answered tool call. Empty for every
// role other than tool.
func (message Message) ToolCallID() string {
	return message.toolCallID
}

// WithContent returns a copy of an assistant message with its text
// replaced and its tool calls kept. Other roles are returned unchanged.
func (message Message) WithContent(text string) Message {
	if message.role != RoleAssistant {
		return message
	}
	replaced := message
	replaced.content = &text
	replaced.toolCalls = cloneToolCalls(message.toolCalls)
	return replaced
}

func (message Message) String() string {
	switch message.role {
	case RoleAssistant:
		if message.HasToolCalls() {
			names := make([]string, len(message.toolCalls))
			for i, call := range message.toolCalls {
				names[i] = call.Name
			}
			return fmt.Sprintf("assistant(%q, tool_calls=%v)", message.Text(), names)
		}
	case RoleTool:
		return fmt.Sprintf("tool(%q, id=%s)", message.Text(), message.toolCallID)
	}
	return fmt.Sprintf("%s(%q)", message.role, message.Text())
}

func cloneToolCalls(calls []ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	cloned := make([]ToolCall, len(calls))
	copy(cloned, calls)
	return cloned
}

// --- Wire form ---
//
// The wire form is the OpenAI chat message object. content is always
// emitted, as JSON null when absent. tool_calls appears only on
// assistant messages that have them; tool_call_id only on tool results.

type wireMessage struct {
	Role       Role           `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// MarshalJSON encodes the message in its wire form. The encoder is
// selected by role.
func (message Message) MarshalJSON() ([]byte, error) {
	wire := wireMessage{Role: message.role, Content: message.content}
	switch message.role {
	case RoleSystem, RoleUser:
	case RoleAssistant:
		if message.content == nil && len(message.toolCalls) == 0 {
			return nil, fmt.Errorf("%w: assistant message with neither content nor tool calls", ErrInvalidMessage)
		}
		wire.ToolCalls = toWireToolCalls(message.toolCalls)
	case RoleTool:
		wire.ToolCallID = message.toolCallID
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, message.role)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a wire message, rejecting field combinations
// the role does not allow.
func (message *Message) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role       Role            `json:"role"`
		Content    json.RawMessage `json:"content"`
		ToolCalls  []wireToolCall  `json:"tool_calls"`
		ToolCallID *string         `json:"tool_call_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	content, err := decodeContent(wire.Content)
	if err != nil {
		return err
	}

	decoded := Message{role: wire.Role, content: content}
	switch wire.Role {
	case RoleSystem, RoleUser:
		if len(wire.ToolCalls) > 0 || wire.ToolCallID != nil {
			return fmt.Errorf("%w: %s message with tool fields", ErrInvalidMessage, wire.Role)
		}
	case RoleAssistant:
		if wire.ToolCallID != nil {
			return fmt.Errorf("%w: assistant message with tool_call_id", ErrInvalidMessage)
		}
		decoded.toolCalls = fromWireToolCalls(wire.ToolCalls)
		if decoded.content == nil && len(decoded.toolCalls) == 0 {
			return fmt.Errorf("%w: assistant message with neither content nor tool calls", ErrInvalidMessage)
		}
	case RoleTool:
		if len(wire.ToolCalls) > 0 {
			return fmt.Errorf("%w: tool message with tool_calls", ErrInvalidMessage)
		}
		if wire.ToolCallID == nil || *wire.ToolCallID == "" {
			return fmt.Errorf("%w: tool message without tool_call_id", ErrInvalidMessage)
		}
		decoded.toolCallID = *wire.ToolCallID
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, wire.Role)
	}

	*message = decoded
	return nil
}

// decodeContent turns the raw content field into present text or
// absent (nil). Missing and null are both absent.
func decodeContent(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("%w: content is not a string: %v", ErrInvalidMessage, err)
	}
	return &text, nil
}

func toWireToolCalls(calls []ToolCall) []wireToolCall {
	if len(calls) == 0 {
		return nil
	}
	wire := make([]wireToolCall, len(calls))
	for i, call := range calls {
		wire[i] = wireToolCall{
			ID:   call.ID,
			Type: "function",
			Function: wireToolFunction{
				Name:      call.Name,
				Arguments: normalizeArguments(call.Arguments),
			},
		}
	}
	return wire
}

func fromWireToolCalls(wire []wireToolCall) []ToolCall {
	if len(wire) == 0 {
		return nil
	}
	calls := make([]ToolCall, len(wire))
	for i, call := range wire {
		calls[i] = NewToolCall(call.ID, call.Function.Name, call.Function.Arguments)
	}
	return calls
}
