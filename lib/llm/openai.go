// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// OpenAI implements [Provider] for the OpenAI Chat Completions wire
// format as served by vLLM. Requests go to a single endpoint URL (for
// example http://host:8000/v1/chat/completions). Any server that
// implements the same format works (OpenAI, llama.cpp, Ollama, etc.);
// the chat_template_kwargs field is ignored by servers that do not
// support it.
type OpenAI struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *slog.Logger
}

// NewOpenAI creates an OpenAI-compatible provider. httpClient must not
// be nil; streaming responses are read to completion, so its Timeout
// bounds the whole stream. apiKey may be empty for servers that do not
// require authentication.
func NewOpenAI(httpClient *http.Client, endpoint, apiKey string, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OpenAI{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Complete sends a non-streaming request and returns the first
// choice's message.
func (provider *OpenAI) Complete(ctx context.Context, request Request) (Message, error) {
	wireRequest := provider.buildRequest(request, false)

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.endpoint, provider.apiKey, wireRequest, "llm/openai", false)
	if err != nil {
		return Message{}, err
	}
	defer httpResponse.Body.Close()

	var wireResponse openaiResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&wireResponse); err != nil {
		return Message{}, fmt.Errorf("llm/openai: decoding response: %w", err)
	}
	if len(wireResponse.Choices) == 0 {
		return Message{}, fmt.Errorf("llm/openai: response has no choices")
	}

	return wireResponse.Choices[0].Message.toMessage(), nil
}

// Stream sends a streaming request and reads the response to the end,
// calling onDelta for each text fragment as its frame arrives. onDelta
// may be nil. Frames that fail to decode are logged and skipped.
func (provider *OpenAI) Stream(ctx context.Context, request Request, onDelta func(string)) (Message, error) {
	wireRequest := provider.buildRequest(request, true)

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.endpoint, provider.apiKey, wireRequest, "llm/openai", true)
	if err != nil {
		return Message{}, err
	}
	defer httpResponse.Body.Close()

	return provider.readStream(httpResponse.Body, onDelta)
}

// readStream folds the frames of a streaming response into one
// assistant message. The stream ends at the [DONE] frame, or at EOF if
// the server closes without sending one.
func (provider *OpenAI) readStream(body io.Reader, onDelta func(string)) (Message, error) {
	scanner := NewFrameScanner(body)
	var accumulator StreamAccumulator

	for scanner.Next() {
		payload := scanner.Frame()
		if payload == doneSentinel {
			break
		}

		var chunk openaiStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			provider.logger.Warn("skipping malformed stream frame",
				"error", err,
				"frame", payload,
			)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		for _, fragment := range delta.ToolCalls {
			var name, arguments string
			if fragment.Function != nil {
				name = fragment.Function.Name
				arguments = fragment.Function.Arguments
			}
			if !accumulator.AddToolCallFragment(fragment.ID, name, arguments) {
				provider.logger.Debug("dropping tool call continuation with no open call",
					"arguments", arguments,
				)
			}
		}

		if delta.Content != "" {
			accumulator.AddText(delta.Content)
			if onDelta != nil {
				onDelta(delta.Content)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Message{}, fmt.Errorf("llm/openai: reading stream: %w", err)
	}

	return accumulator.Message(), nil
}

// buildRequest converts a Request to the wire format.
func (provider *OpenAI) buildRequest(request Request, stream bool) openaiRequest {
	wireRequest := openaiRequest{
		Model:    request.Model,
		Messages: request.Messages,
		Stream:   stream,
		ChatTemplateKwargs: openaiChatTemplateKwargs{
			EnableThinking: request.EnableThinking,
		},
	}
	if wireRequest.Messages == nil {
		wireRequest.Messages = []Message{}
	}

	// Without a catalog both fields are omitted; some servers reject
	// tool_choice next to an empty tool list.
	if len(request.Tools) == 0 {
		return wireRequest
	}
	wireRequest.ToolChoice = "auto"
	wireRequest.Tools = make([]openaiTool, 0, len(request.Tools))
	for _, tool := range request.Tools {
		parameters := tool.Parameters
		if len(parameters) == 0 {
			parameters = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		wireRequest.Tools = append(wireRequest.Tools, openaiTool{
			Type: "function",
			Function: openaiToolDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  parameters,
			},
		})
	}

	return wireRequest
}

// --- OpenAI wire types ---
//
// Messages are serialized by Message.MarshalJSON, which already emits
// the chat message object. The types below cover the request envelope
// and the two response shapes.

type openaiRequest struct {
	Model              string                   `json:"model"`
	Messages           []Message                `json:"messages"`
	Tools              []openaiTool             `json:"tools,omitempty"`
	ToolChoice         string                   `json:"tool_choice,omitempty"`
	Stream             bool                     `json:"stream,omitempty"`
	ChatTemplateKwargs openaiChatTemplateKwargs `json:"chat_template_kwargs"`
}

// openaiChatTemplateKwargs is passed through to the model's chat
// template by vLLM. Qwen3 templates read enable_thinking to switch
// the reasoning preamble on or off.
type openaiChatTemplateKwargs struct {
	EnableThinking bool `json:"enable_thinking"`
}

type openaiTool struct {
	Type     string               `json:"type"`
	Function openaiToolDefinition `json:"function"`
}

type openaiToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Index        int                   `json:"index"`
	Message      openaiResponseMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// openaiResponseMessage is the message of a non-streaming choice. It
// is decoded loosely (role is always assistant, content may be null)
// and then converted, rather than going through Message.UnmarshalJSON,
// so that a reply with neither content nor tool calls still yields a
// usable empty assistant message.
type openaiResponseMessage struct {
	Content   *string        `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls"`
}

func (wire openaiResponseMessage) toMessage() Message {
	calls := fromWireToolCalls(wire.ToolCalls)
	if len(calls) == 0 {
		if wire.Content == nil {
			return AssistantMessage("")
		}
		return AssistantMessage(*wire.Content)
	}
	// Cannot fail: calls is non-empty.
	message, _ := AssistantToolCallMessage(wire.Content, calls)
	return message
}

// Streaming-specific types. The streaming format uses "delta" instead
// of "message" in choices, and finish_reason is null until the final
// chunk.

type openaiStreamChunk struct {
	ID      string               `json:"id"`
	Model   string               `json:"model"`
	Choices []openaiStreamChoice `json:"choices"`
}

type openaiStreamChoice struct {
	Index        int               `json:"index"`
	Delta        openaiStreamDelta `json:"delta"`
	FinishReason *string           `json:"finish_reason"`
}

type openaiStreamDelta struct {
	Role      string                 `json:"role,omitempty"`
	Content   string                 `json:"content,omitempty"`
	ToolCalls []openaiStreamToolCall `json:"tool_calls,omitempty"`
}

type openaiStreamToolCall struct {
	Index    int                       `json:"index"`
	ID       string                    `json:"id,omitempty"`
	Type     string                    `json:"type,omitempty"`
	Function *openaiStreamToolFunction `json:"function,omitempty"`
}

type openaiStreamToolFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}
