// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// openaiTestServer creates a test HTTP server and returns an OpenAI
// provider pointed at its chat completions endpoint.
func openaiTestServer(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAI(server.Client(), server.URL+"/v1/chat/completions", "", nil)
}

// writeFrames writes each payload as a "data:" line and flushes.
func writeFrames(writer http.ResponseWriter, payloads ...string) {
	writer.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := writer.(http.Flusher)
	for _, payload := range payloads {
		fmt.Fprintf(writer, "data: %s\n\n", payload)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func TestOpenAICompleteRequestShape(t *testing.T) {
	t.Parallel()

	var captured map[string]json.RawMessage
	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", request.URL.Path)
		}
		if request.Header.Get("Authorization") != "" {
			t.Errorf("Authorization = %q, want none without an API key", request.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(request.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		writer.Header().Set("Content-Type", "application/json")
		io.WriteString(writer, `{"choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}]}`)
	})

	response, err := provider.Complete(context.Background(), Request{
		Model:    "qwen3",
		Messages: []Message{SystemMessage("S"), UserMessage("hello")},
		Tools: []ToolDefinition{{
			Name:        "list_outline_templates",
			Description: "List outline templates",
			Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
		}},
		EnableThinking: true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if response.Role() != RoleAssistant || response.Text() != "hi" {
		t.Errorf("response = %v, want assistant(\"hi\")", response)
	}
	if response.HasToolCalls() {
		t.Errorf("response has tool calls, want none")
	}

	if string(captured["model"]) != `"qwen3"` {
		t.Errorf("model = %s, want \"qwen3\"", captured["model"])
	}
	if string(captured["tool_choice"]) != `"auto"` {
		t.Errorf("tool_choice = %s, want \"auto\"", captured["tool_choice"])
	}
	if _, present := captured["stream"]; present {
		t.Errorf("stream present in single-shot request: %s", captured["stream"])
	}
	if string(captured["chat_template_kwargs"]) != `{"enable_thinking":true}` {
		t.Errorf("chat_template_kwargs = %s, want {\"enable_thinking\":true}", captured["chat_template_kwargs"])
	}

	var tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			Parameters  json.RawMessage `json:"parameters"`
		} `json:"function"`
	}
	if err := json.Unmarshal(captured["tools"], &tools); err != nil {
		t.Fatalf("decoding tools: %v", err)
	}
	if len(tools) != 1 {
		t.Fatalf("tools length = %d, want 1", len(tools))
	}
	if tools[0].Type != "function" || tools[0].Function.Name != "list_outline_templates" {
		t.Errorf("tool = %+v, want function list_outline_templates", tools[0])
	}

	var messages []Message
	if err := json.Unmarshal(captured["messages"], &messages); err != nil {
		t.Fatalf("decoding messages: %v", err)
	}
	if len(messages) != 2 || messages[0].Role() != RoleSystem || messages[1].Text() != "hello" {
		t.Errorf("messages = %v, want [system(S) user(hello)]", messages)
	}
}

func TestOpenAICompleteSendsAPIKey(t *testing.T) {
	t.Parallel()

	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		if got := request.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer secret")
		}
		io.WriteString(writer, `{"choices":[{"message":{"content":"ok"}}]}`)
	})
	provider.apiKey = "secret"

	if _, err := provider.Complete(context.Background(), Request{Model: "m"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
}

func TestOpenAICompleteWithoutTools(t *testing.T) {
	t.Parallel()

	var captured map[string]json.RawMessage
	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		if err := json.NewDecoder(request.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		io.WriteString(writer, `{"choices":[{"message":{"content":"ok"}}]}`)
	})

	if _, err := provider.Complete(context.Background(), Request{Model: "m", Messages: []Message{UserMessage("x")}}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	for _, field := range []string{"tools", "tool_choice"} {
		if value, present := captured[field]; present {
			t.Errorf("%s = %s, want omitted without a catalog", field, value)
		}
	}
	if _, present := captured["chat_template_kwargs"]; !present {
		t.Error("chat_template_kwargs missing")
	}
}

func TestOpenAICompleteToolCalls(t *testing.T) {
	t.Parallel()

	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		io.WriteString(writer, `{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[`+
			`{"id":"call_1","type":"function","function":{"name":"get_memory","arguments":"{\"key\":\"progress.currentStep\"}"}},`+
			`{"id":"call_2","type":"function","function":{"name":"list_memory","arguments":"  "}}]}}]}`)
	})

	response, err := provider.Complete(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, present := response.Content(); present {
		t.Errorf("content present, want absent for null")
	}
	calls := response.ToolCalls()
	if len(calls) != 2 {
		t.Fatalf("tool calls = %d, want 2", len(calls))
	}
	if calls[0].ID != "call_1" || calls[0].Name != "get_memory" || calls[0].Arguments != `{"key":"progress.currentStep"}` {
		t.Errorf("calls[0] = %+v", calls[0])
	}
	if calls[1].Arguments != "{}" {
		t.Errorf("calls[1].Arguments = %q, want {}", calls[1].Arguments)
	}
}

func TestOpenAICompleteNoChoices(t *testing.T) {
	t.Parallel()

	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		io.WriteString(writer, `{"choices":[]}`)
	})

	if _, err := provider.Complete(context.Background(), Request{Model: "m"}); err == nil {
		t.Fatal("Complete succeeded, want error for empty choices")
	}
}

func TestOpenAIErrorStatus(t *testing.T) {
	t.Parallel()

	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		io.WriteString(writer, `{"error":{"type":"BadRequestError","message":"maximum context length exceeded"}}`)
	})

	_, err := provider.Complete(context.Background(), Request{Model: "m"})
	var providerError *ProviderError
	if !errors.As(err, &providerError) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if providerError.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", providerError.StatusCode)
	}
	if providerError.Type != "BadRequestError" {
		t.Errorf("Type = %q, want BadRequestError", providerError.Type)
	}
	if providerError.Message != "maximum context length exceeded" {
		t.Errorf("Message = %q", providerError.Message)
	}
}

func TestOpenAIErrorTopLevelAndRaw(t *testing.T) {
	t.Parallel()

	topLevel := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(writer, `{"object":"error","type":"RateLimit","message":"slow down"}`)
	})
	_, err := topLevel.Complete(context.Background(), Request{Model: "m"})
	var providerError *ProviderError
	if !errors.As(err, &providerError) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if !providerError.IsRateLimited() || providerError.Message != "slow down" {
		t.Errorf("error = %+v, want rate limited with message", providerError)
	}

	raw := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
		io.WriteString(writer, "upstream unavailable")
	})
	_, err = raw.Complete(context.Background(), Request{Model: "m"})
	if !errors.As(err, &providerError) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if providerError.Message != "upstream unavailable" {
		t.Errorf("Message = %q, want raw body", providerError.Message)
	}
}

func TestOpenAIStreamText(t *testing.T) {
	t.Parallel()

	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			Stream bool `json:"stream"`
		}
		json.NewDecoder(request.Body).Decode(&body)
		if !body.Stream {
			t.Error("stream = false, want true for Stream")
		}
		if got := request.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", got)
		}
		writeFrames(writer,
			`{"choices":[{"delta":{"role":"assistant"}}]}`,
			`{"choices":[{"delta":{"content":"Hel"}}]}`,
			`{"choices":[{"delta":{"content":"lo"},"finish_reason":"stop"}]}`,
			"[DONE]",
			`{"choices":[{"delta":{"content":"after done"}}]}`,
		)
	})

	var deltas []string
	response, err := provider.Stream(context.Background(), Request{Model: "m"}, func(fragment string) {
		deltas = append(deltas, fragment)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if response.Text() != "Hello" {
		t.Errorf("text = %q, want Hello", response.Text())
	}
	if strings.Join(deltas, "|") != "Hel|lo" {
		t.Errorf("deltas = %q, want [Hel lo]", deltas)
	}
	if response.HasToolCalls() {
		t.Error("response has tool calls, want none")
	}
}

func TestOpenAIStreamToolCallReconstruction(t *testing.T) {
	t.Parallel()

	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writeFrames(writer,
			`{"choices":[{"delta":{"content":"calling"}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"a","type":"function","function":{"name":"f","arguments":"{\"x\":1"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"}"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":1,"id":"b","type":"function","function":{"name":"g","arguments":""}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
			"[DONE]",
		)
	})

	response, err := provider.Stream(context.Background(), Request{Model: "m"}, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if response.Text() != "calling" {
		t.Errorf("text = %q, want calling", response.Text())
	}
	calls := response.ToolCalls()
	if len(calls) != 2 {
		t.Fatalf("tool calls = %d, want 2", len(calls))
	}
	if calls[0].ID != "a" || calls[0].Name != "f" || calls[0].Arguments != `{"x":1}` {
		t.Errorf("calls[0] = %+v, want a/f/{\"x\":1}", calls[0])
	}
	if calls[1].ID != "b" || calls[1].Name != "g" || calls[1].Arguments != "{}" {
		t.Errorf("calls[1] = %+v, want b/g/{}", calls[1])
	}
}

func TestOpenAIStreamSkipsMalformedFrame(t *testing.T) {
	t.Parallel()

	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writeFrames(writer,
			`{"choices":[{"delta":{"content":"one "}}]}`,
			`{"choices":[{"delta":`,
			`{"choices":[{"delta":{"content":"two"}}]}`,
			"[DONE]",
		)
	})

	response, err := provider.Stream(context.Background(), Request{Model: "m"}, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if response.Text() != "one two" {
		t.Errorf("text = %q, want %q", response.Text(), "one two")
	}
}

func TestOpenAIStreamWithoutDone(t *testing.T) {
	t.Parallel()

	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writeFrames(writer, `{"choices":[{"delta":{"content":"partial"}}]}`)
	})

	response, err := provider.Stream(context.Background(), Request{Model: "m"}, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if response.Text() != "partial" {
		t.Errorf("text = %q, want partial", response.Text())
	}
}

func TestOpenAIStreamErrorStatus(t *testing.T) {
	t.Parallel()

	provider := openaiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
		io.WriteString(writer, `{"error":{"message":"engine dead"}}`)
	})

	called := false
	_, err := provider.Stream(context.Background(), Request{Model: "m"}, func(string) { called = true })
	var providerError *ProviderError
	if !errors.As(err, &providerError) || providerError.StatusCode != http.StatusInternalServerError {
		t.Fatalf("error = %v, want 500 ProviderError", err)
	}
	if called {
		t.Error("onDelta called for a failed request")
	}
}
