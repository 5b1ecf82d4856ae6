// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent runs the conversation loop of the document assistant.
//
// A [Loop] owns one conversation: it appends the user's input to a
// compressing history store, requests completions through a transport,
// executes the tools the model asks for, and feeds the results back
// until the model answers with plain text.
//
// Every step is reported as an [Event] to an optional [EventSink].
// [SessionLog] is the JSONL sink used by the console binary.
package agent
