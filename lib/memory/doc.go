// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory is the agent's persistent key-value memory: one JSON
// document on disk holding what the model chose to remember across
// turns and sessions (the current project, the outline, progress,
// chapter drafts).
//
// The document is loaded once by [Open] and rewritten in full after
// every mutation. Writes are atomic (temporary file, fsync, rename), so
// a crash leaves either the previous or the new document, never a
// partial one. The file may contain comments and trailing commas; they
// are accepted on load and dropped on the next write.
//
// Keys are flat strings. By convention a key is "category.name", with
// the categories listed in [Categories]. Global variables are the
// exception: they live in one nested object under "globalVariables"
// and are accessed through [Store.SetGlobal] and [Store.Global].
package memory
