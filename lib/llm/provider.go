// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Provider is the completion backend used by [Transport]. Both calls
// block until the full response has been read. Stream additionally
// invokes onDelta for every text fragment, synchronously and in
// arrival order.
type Provider interface {
	Complete(ctx context.Context, request Request) (Message, error)
	Stream(ctx context.Context, request Request, onDelta func(string)) (Message, error)
}

// Request is one completion request. Messages is sent verbatim as the
// conversation; Tools is the catalog the model may call.
type Request struct {
	Model          string
	Messages       []Message
	Tools          []ToolDefinition
	EnableThinking bool
}

// ToolDefinition describes one callable tool to the model.
type ToolDefinition struct {
	Name        string
	Description string

	// Parameters is the JSON Schema of the tool's argument object.
	Parameters json.RawMessage
}

// ProviderError is returned when the service responds with a
// non-success status.
type ProviderError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Type is the error type string from the response body, if any
	// (e.g., "BadRequestError", "invalid_request_error").
	Type string

	// Message is the human-readable error description, or the raw
	// response body when it was not in the structured error format.
	Message string
}

func (err *ProviderError) Error() string {
	if err.Type != "" {
		return fmt.Sprintf("llm: HTTP %d: %s: %s", err.StatusCode, err.Type, err.Message)
	}
	return fmt.Sprintf("llm: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsRateLimited returns true if the error is a rate limit response (HTTP 429).
func (err *ProviderError) IsRateLimited() bool {
	return err.StatusCode == http.StatusTooManyRequests
}

// doProviderRequest marshals wireRequest as JSON, POSTs it to endpoint
// via httpClient, and returns the HTTP response. Returns a
// ProviderError for non-2xx status codes. When streaming is true, the
// Accept header is set to text/event-stream. A non-empty apiKey is sent
// as a bearer token.
//
// On success the caller is responsible for closing the response body.
// On error the body is already closed.
func doProviderRequest(ctx context.Context, httpClient *http.Client, endpoint, apiKey string, wireRequest any, prefix string, streaming bool) (*http.Response, error) {
	body, err := json.Marshal(wireRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", prefix, err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", prefix, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if streaming {
		httpRequest.Header.Set("Accept", "text/event-stream")
	}
	if apiKey != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+apiKey)
	}

	httpResponse, err := httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: sending request: %w", prefix, err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		defer httpResponse.Body.Close()
		return nil, readProviderError(httpResponse)
	}

	return httpResponse, nil
}

// readProviderError parses an error response body. vLLM and OpenAI use
// {"error":{"type":"...","message":"..."}}; older vLLM builds and some
// proxies put "message"/"type" at the top level. Anything else is
// reported as the raw body.
func readProviderError(httpResponse *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 4096))

	var wireError struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wireError) == nil {
		if wireError.Error.Message != "" {
			return &ProviderError{
				StatusCode: httpResponse.StatusCode,
				Type:       wireError.Error.Type,
				Message:    wireError.Error.Message,
			}
		}
		if wireError.Message != "" {
			return &ProviderError{
				StatusCode: httpResponse.StatusCode,
				Type:       wireError.Type,
				Message:    wireError.Message,
			}
		}
	}

	return &ProviderError{
		StatusCode: httpResponse.StatusCode,
		Message:    string(body),
	}
}
