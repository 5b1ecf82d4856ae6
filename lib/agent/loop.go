// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/docagent/lib/clock"
	"github.com/bureau-foundation/docagent/lib/llm"
	llmcontext "github.com/bureau-foundation/docagent/lib/llm/context"
)

// DefaultMaxToolRounds bounds the tool rounds of one turn when the
// configuration does not.
const DefaultMaxToolRounds = 25

// ToolCallPolicy decides which tool calls of a multi-call response are
// executed.
type ToolCallPolicy string

const (
	// ExecuteFirst runs only the first tool call of a response. The
	// remaining calls stay in the assistant record but get no result.
	ExecuteFirst ToolCallPolicy = "first"

	// ExecuteAll runs every tool call of a response in order.
	ExecuteAll ToolCallPolicy = "all"
)

// ParseToolCallPolicy converts a configuration value to a policy. The
// empty string is ExecuteFirst.
func ParseToolCallPolicy(value string) (ToolCallPolicy, error) {
	switch ToolCallPolicy(value) {
	case "", ExecuteFirst:
		return ExecuteFirst, nil
	case ExecuteAll:
		return ExecuteAll, nil
	default:
		return "", fmt.Errorf("agent: unknown tool call policy %q (want %q or %q)", value, ExecuteFirst, ExecuteAll)
	}
}

// Transport requests one completion over a history. It never fails:
// provider errors come back as assistant text. *llm.Transport
// implements it.
type Transport interface {
	Complete(ctx context.Context, history []llm.Message, options llm.CallOptions) llm.Message
}

// ToolExecutor runs a named tool with raw argument text. The error is
// reserved for tools that cannot be run at all; *tool.Registry
// implements it.
type ToolExecutor interface {
	Execute(name, arguments string) (string, error)
}

// Config holds the dependencies of a Loop.
type Config struct {
	// Transport requests completions. Required.
	Transport Transport

	// Store holds the conversation history, normally seeded with the
	// system preamble. Required.
	Store *llmcontext.Store

	// Tools executes the model's tool calls. Required.
	Tools ToolExecutor

	// MaxToolRounds bounds the tool-call rounds of one turn. Zero
	// means DefaultMaxToolRounds; negative means unbounded.
	MaxToolRounds int

	// Policy selects which calls of a multi-call response run. Empty
	// means ExecuteFirst.
	Policy ToolCallPolicy

	// Streaming requests streamed completions. Deltas are delivered to
	// OnDelta; without OnDelta completions are requested single-shot.
	Streaming bool
	OnDelta   func(string)

	// EnableThinking is forwarded to the chat template.
	EnableThinking bool

	// Events receives a record of every step. Optional.
	Events EventSink

	// Clock stamps events. Nil means clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// Loop drives one conversation. It is not safe for concurrent use:
// one Process call runs at a time, from one goroutine.
type Loop struct {
	transport     Transport
	store         *llmcontext.Store
	tools         ToolExecutor
	maxToolRounds int
	policy        ToolCallPolicy
	options       llm.CallOptions
	events        EventSink
	clock         clock.Clock
	logger        *slog.Logger

	turn int

	// compressionSeen is the sequence number of the last compression
	// run reported as an event.
	compressionSeen int
}

// NewLoop validates config and creates a Loop.
func NewLoop(config Config) (*Loop, error) {
	if config.Transport == nil {
		return nil, errors.New("agent: Transport is required")
	}
	if config.Store == nil {
		return nil, errors.New("agent: Store is required")
	}
	if config.Tools == nil {
		return nil, errors.New("agent: Tools is required")
	}
	policy, err := ParseToolCallPolicy(string(config.Policy))
	if err != nil {
		return nil, err
	}

	maxToolRounds := config.MaxToolRounds
	if maxToolRounds == 0 {
		maxToolRounds = DefaultMaxToolRounds
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	loopClock := config.Clock
	if loopClock == nil {
		loopClock = clock.Real()
	}

	loop := &Loop{
		transport:     config.Transport,
		store:         config.Store,
		tools:         config.Tools,
		maxToolRounds: maxToolRounds,
		policy:        policy,
		options: llm.CallOptions{
			Streaming:      config.Streaming,
			OnDelta:        config.OnDelta,
			EnableThinking: config.EnableThinking,
		},
		events: config.Events,
		clock:  loopClock,
		logger: logger,
	}
	if last, ran := config.Store.LastCompression(); ran {
		loop.compressionSeen = last.Sequence
	}
	return loop, nil
}

// Process runs one turn: it appends input as a user message, then
// alternates completions and tool execution until the model answers
// without tool calls or the round limit is reached. Either way the turn
// ends with an assistant message in the history.
//
// Provider and tool failures are part of the conversation, not errors.
// Process returns an error only when ctx is done; the history then
// keeps everything appended before cancellation was observed.
func (loop *Loop) Process(ctx context.Context, input string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	loop.turn++
	turn := loop.turn
	logger := loop.logger.With("turn", turn)

	loop.append(llm.UserMessage(input))
	loop.emit(Event{Type: EventTypePrompt, Prompt: &PromptEvent{Content: input}})

	for round := 0; ; round++ {
		logger.Debug("requesting completion", "round", round, "messages", loop.store.Len())
		response := loop.transport.Complete(ctx, loop.store.Snapshot(), loop.options)
		if err := ctx.Err(); err != nil {
			logger.Info("turn cancelled", "round", round)
			return err
		}

		if !response.HasToolCalls() {
			loop.append(response)
			text := response.Text()
			logger.Info("turn complete", "rounds", round, "length", len(text))
			loop.emit(Event{Type: EventTypeResponse, Response: &ResponseEvent{Content: text}})
			return nil
		}

		if loop.maxToolRounds > 0 && round >= loop.maxToolRounds {
			message := fmt.Sprintf("Stopped after %d tool rounds without a final answer.", round)
			logger.Warn("tool round limit reached",
				"rounds", round,
				"pending_calls", len(response.ToolCalls()),
			)
			loop.append(llm.AssistantMessage(message))
			loop.emit(Event{Type: EventTypeSystem, System: &SystemEvent{Subtype: "round_limit", Message: message}})
			return nil
		}

		calls := response.ToolCalls()
		loop.append(response)
		if text := response.Text(); text != "" {
			loop.emit(Event{Type: EventTypeResponse, Response: &ResponseEvent{Content: text, ToolCalls: len(calls)}})
		}

		execute := calls
		if loop.policy == ExecuteFirst && len(calls) > 1 {
			execute = calls[:1]
			for _, dropped := range calls[1:] {
				logger.Warn("dropping extra tool call", "tool", dropped.Name, "id", dropped.ID)
				loop.emit(Event{Type: EventTypeToolCall, ToolCall: &ToolCallEvent{
					ID:        dropped.ID,
					Name:      dropped.Name,
					Arguments: dropped.Arguments,
					Dropped:   true,
				}})
			}
		}

		for _, call := range execute {
			if err := ctx.Err(); err != nil {
				logger.Info("turn cancelled before tool execution", "tool", call.Name)
				return err
			}
			loop.executeToolCall(logger, call)
		}
	}
}

// Turns returns the number of Process calls so far.
func (loop *Loop) Turns() int {
	return loop.turn
}

// executeToolCall runs one call and appends its result. An unknown tool
// is answered with an error result so the model can recover.
func (loop *Loop) executeToolCall(logger *slog.Logger, call llm.ToolCall) {
	loop.emit(Event{Type: EventTypeToolCall, ToolCall: &ToolCallEvent{
		ID:        call.ID,
		Name:      call.Name,
		Arguments: call.Arguments,
	}})

	logger.Info("executing tool", "tool", call.Name, "id", call.ID)
	start := loop.clock.Now()
	output, err := loop.tools.Execute(call.Name, call.Arguments)
	isError := err != nil
	if isError {
		logger.Warn("tool could not be executed", "tool", call.Name, "id", call.ID, "error", err)
		output = fmt.Sprintf("error: unknown tool '%s'", call.Name)
	} else {
		logger.Info("tool completed",
			"tool", call.Name,
			"id", call.ID,
			"output_length", len(output),
			"duration", clock.Since(loop.clock, start),
		)
	}

	loop.append(llm.ToolResultMessage(call.ID, output))
	loop.emit(Event{Type: EventTypeToolResult, ToolResult: &ToolResultEvent{
		ID:      call.ID,
		Name:    call.Name,
		IsError: isError,
		Output:  output,
	}})
}

// append adds message to the store and reports a compression run it
// triggered.
func (loop *Loop) append(message llm.Message) {
	loop.store.Append(message)
	last, ran := loop.store.LastCompression()
	if !ran || last.Sequence == loop.compressionSeen {
		return
	}
	loop.compressionSeen = last.Sequence
	loop.emit(Event{Type: EventTypeCompressed, Compressed: &CompressedEvent{
		TokensBefore:    last.TokensBefore,
		TokensAfter:     last.TokensAfter,
		SoftCompressed:  last.SoftCompressed,
		MessagesRemoved: last.MessagesRemoved,
		OverBudget:      last.OverBudget,
	}})
}

func (loop *Loop) emit(event Event) {
	if loop.events == nil {
		return
	}
	event.Timestamp = loop.clock.Now()
	if event.Turn == 0 {
		event.Turn = loop.turn
	}
	if err := loop.events.Write(event); err != nil {
		loop.logger.Warn("writing loop event failed", "type", event.Type, "error", err)
	}
}
