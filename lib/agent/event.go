// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"errors"
	"time"
)

// EventType classifies loop events.
type EventType string

const (
	// EventTypePrompt is user input accepted by Process.
	EventTypePrompt EventType = "prompt"

	// EventTypeToolCall is a tool call requested by the model. Calls
	// the policy does not execute are reported with Dropped set.
	EventTypeToolCall EventType = "tool_call"

	// EventTypeToolResult is the text a tool returned.
	EventTypeToolResult EventType = "tool_result"

	// EventTypeResponse is assistant text: the final answer of a turn,
	// or the text that accompanied a tool-call response.
	EventTypeResponse EventType = "response"

	// EventTypeCompressed is a history compression run.
	EventTypeCompressed EventType = "compressed"

	// EventTypeSystem is a loop-level notice (round limit, shutdown).
	EventTypeSystem EventType = "system"
)

// Event is a structured record of one loop step. Exactly one payload
// pointer is set, matching Type. Events are serialized as JSONL in the
// session log.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`

	// Turn is the 1-based number of the Process call that produced the
	// event. Zero for events outside a turn.
	Turn int `json:"turn,omitempty"`

	Prompt     *PromptEvent     `json:"prompt,omitempty"`
	ToolCall   *ToolCallEvent   `json:"tool_call,omitempty"`
	ToolResult *ToolResultEvent `json:"tool_result,omitempty"`
	Response   *ResponseEvent   `json:"response,omitempty"`
	Compressed *CompressedEvent `json:"compressed,omitempty"`
	System     *SystemEvent     `json:"system,omitempty"`
}

// PromptEvent records user input.
type PromptEvent struct {
	Content string `json:"content"`
}

// ToolCallEvent records a tool call issued by the model.
type ToolCallEvent struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`

	// Arguments is the raw argument text. It is kept as a string
	// because the model is free to produce malformed JSON.
	Arguments string `json:"arguments,omitempty"`

	// Dropped is set when the call policy skipped the call.
	Dropped bool `json:"dropped,omitempty"`
}

// ToolResultEvent records the result of a tool call.
type ToolResultEvent struct {
	// ID matches the corresponding ToolCallEvent.ID.
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`

	// IsError is set when the tool could not be run at all, such as
	// an unknown tool name. Failures reported by the tool itself are
	// ordinary output.
	IsError bool   `json:"is_error,omitempty"`
	Output  string `json:"output"`
}

// ResponseEvent records assistant text.
type ResponseEvent struct {
	Content string `json:"content"`

	// ToolCalls is the number of tool calls that accompanied the text.
	ToolCalls int `json:"tool_calls,omitempty"`
}

// CompressedEvent records a history compression run.
type CompressedEvent struct {
	TokensBefore    int  `json:"tokens_before"`
	TokensAfter     int  `json:"tokens_after"`
	SoftCompressed  int  `json:"soft_compressed,omitempty"`
	MessagesRemoved int  `json:"messages_removed,omitempty"`
	OverBudget      bool `json:"over_budget,omitempty"`
}

// SystemEvent records a loop-level notice.
type SystemEvent struct {
	// Subtype classifies the notice: "round_limit", "init", "shutdown".
	Subtype string `json:"subtype"`
	Message string `json:"message,omitempty"`
}

// EventSink receives loop events. Write is called synchronously from
// the loop goroutine; an error is logged and does not stop the loop.
type EventSink interface {
	Write(Event) error
}

// EventSinkFunc adapts a function to [EventSink].
type EventSinkFunc func(Event) error

// Write calls function(event).
func (function EventSinkFunc) Write(event Event) error {
	return function(event)
}

// MultiSink fans events out to every sink in order. All sinks are
// called; the errors are joined.
type MultiSink []EventSink

// Write passes event to each sink.
func (sinks MultiSink) Write(event Event) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Write(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
