// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import "strings"

// StreamAccumulator assembles one streamed completion: the text
// fragments and the tool calls whose arguments arrive split across
// frames. One accumulator serves exactly one streaming call.
//
// Tool-call fragments are correlated by position only. A fragment with
// a name opens a new call; a fragment without a name continues the
// most recently opened one. The service streams one call's arguments
// completely before it starts the next call, so the ids and indexes on
// continuation fragments are not consulted.
type StreamAccumulator struct {
	text    strings.Builder
	pending []*partialToolCall
}

// partialToolCall tracks a tool call being assembled from fragments.
type partialToolCall struct {
	id        string
	name      string
	arguments strings.Builder
}

// AddText appends a text fragment.
func (accumulator *StreamAccumulator) AddText(fragment string) {
	accumulator.text.WriteString(fragment)
}

// AddToolCallFragment folds one tool-call fragment into the pending
// calls. It returns false when the fragment is a continuation but no
// call has been opened yet; such a fragment is dropped.
func (accumulator *StreamAccumulator) AddToolCallFragment(id, name, arguments string) bool {
	if name != "" {
		partial := &partialToolCall{id: id, name: name}
		partial.arguments.WriteString(arguments)
		accumulator.pending = append(accumulator.pending, partial)
		return true
	}
	if len(accumulator.pending) == 0 {
		return false
	}
	accumulator.pending[len(accumulator.pending)-1].arguments.WriteString(arguments)
	return true
}

// Text returns the text accumulated so far.
func (accumulator *StreamAccumulator) Text() string {
	return accumulator.text.String()
}

// ToolCalls returns the assembled tool calls in the order they were
// opened, with empty argument buffers normalized to "{}". Nil when no
// call was opened.
func (accumulator *StreamAccumulator) ToolCalls() []ToolCall {
	if len(accumulator.pending) == 0 {
		return nil
	}
	calls := make([]ToolCall, len(accumulator.pending))
	for i, partial := range accumulator.pending {
		calls[i] = NewToolCall(partial.id, partial.name, partial.arguments.String())
	}
	return calls
}

// Message returns the completed assistant message: the accumulated
// text as content, plus the tool calls when any were opened.
func (accumulator *StreamAccumulator) Message() Message {
	text := accumulator.Text()
	calls := accumulator.ToolCalls()
	if len(calls) == 0 {
		return AssistantMessage(text)
	}
	// Cannot fail: calls is non-empty.
	message, _ := AssistantToolCallMessage(&text, calls)
	return message
}
