// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package context holds the conversation history of an agent loop and
// keeps it within a token budget.
//
// The central type is [Store]. The loop appends every message to the
// store and takes a [Store.Snapshot] before each completion request.
// After every append the store measures the whole history (each
// message's wire JSON, counted by a [TokenCounter]) and compresses it
// when the total exceeds the budget.
//
// Compression has two stages. The soft stage replaces the text of
// assistant messages that carry tool calls with a fixed placeholder,
// keeping the tool calls so that every tool result still has the call
// it answers. It skips the system preamble at index 0 and the final
// two messages. If the history is still over budget, the hard stage
// deletes the oldest turn group: everything from the first user
// message up to, but not including, the second. With fewer than two
// user messages nothing is deleted and the history stays over budget.
//
// Turn groups are the unit of deletion. A turn group starts with a
// user message and includes the assistant replies, tool calls and tool
// results that follow, up to the next user message. Deleting part of a
// group would orphan tool results, so groups are always deleted whole.
//
// The token total is recomputed from scratch on every check. This is
// linear in the history length per append and becomes noticeable with
// very long conversations; see [Store.TokenCount].
package context
