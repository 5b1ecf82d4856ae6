// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm talks to an OpenAI-compatible chat completions service
// (vLLM, llama.cpp, Ollama and similar) with streaming and tool-call
// support.
//
// [Message] is the conversation element: a closed set of role shapes
// (system, user, assistant, tool result) that can only be built through
// the role constructors, so a value never carries fields its role does
// not allow. Messages serialize to exactly the wire form the service
// expects.
//
// [OpenAI] is the raw provider. It returns typed errors
// ([ProviderError] for non-success responses, wrapped errors for
// network failures). [Transport] wraps a provider with the conversation
// boundary contract: it never returns an error. Failures become an
// assistant message whose text describes what went wrong, so the
// conversation can continue and the user sees the problem as chat text.
//
// Streaming responses are line-delimited "data:" frames read by
// [FrameScanner] and folded into a [StreamAccumulator], which
// reassembles tool calls whose arguments arrive split across frames.
package llm
