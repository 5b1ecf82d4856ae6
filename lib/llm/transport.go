// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// CallOptions selects how one completion is requested.
type CallOptions struct {
	// Streaming requests a streamed response. It takes effect only when
	// OnDelta is also set; without a consumer for the fragments the
	// request is sent single-shot.
	Streaming bool

	// OnDelta receives each text fragment of a streamed response,
	// synchronously and in arrival order.
	OnDelta func(string)

	// EnableThinking is forwarded to the chat template.
	EnableThinking bool
}

// Transport is the completion boundary of the conversation. It sends
// the history and the registered tool catalog to a [Provider] and
// always returns an assistant message: when the provider fails, the
// message text describes the failure and carries no tool calls.
type Transport struct {
	provider Provider
	model    string
	tools    []ToolDefinition
	logger   *slog.Logger
}

// NewTransport creates a Transport that requests completions from
// provider for model, advertising tools on every request.
func NewTransport(provider Provider, model string, tools []ToolDefinition, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Transport{
		provider: provider,
		model:    model,
		tools:    tools,
		logger:   logger,
	}
}

// Complete requests one completion over history. It never fails; see
// [Transport].
func (transport *Transport) Complete(ctx context.Context, history []Message, options CallOptions) Message {
	request := Request{
		Model:          transport.model,
		Messages:       history,
		Tools:          transport.tools,
		EnableThinking: options.EnableThinking,
	}

	streaming := options.Streaming && options.OnDelta != nil

	var (
		response Message
		err      error
	)
	if streaming {
		response, err = transport.provider.Stream(ctx, request, options.OnDelta)
	} else {
		response, err = transport.provider.Complete(ctx, request)
	}
	if err != nil {
		transport.logger.Error("completion failed",
			"error", err,
			"streaming", streaming,
			"messages", len(history),
		)
		return AssistantMessage(describeFailure(err))
	}

	transport.logger.Debug("completion received",
		"streaming", streaming,
		"content_length", len(response.Text()),
		"tool_calls", len(response.ToolCalls()),
	)
	return response
}

// describeFailure renders a provider error as chat text.
func describeFailure(err error) string {
	var providerError *ProviderError
	if errors.As(err, &providerError) {
		return fmt.Sprintf("API call failed: HTTP %d\nError: %s", providerError.StatusCode, providerError.Message)
	}
	if errors.Is(err, context.Canceled) {
		return "Request cancelled."
	}
	return fmt.Sprintf("An error occurred: %v", err)
}
