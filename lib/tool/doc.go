// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tool defines the local capabilities a model may call and the
// registry the agent loop resolves them through.
//
// A [Tool] has a unique name, a description and a JSON Schema for its
// argument object, which together form the catalog sent with every
// completion request. Execute receives the raw argument text exactly
// as the model produced it and returns result text. It never fails:
// malformed or missing arguments produce a readable error string that
// goes back to the model as the tool result, so the model can correct
// itself on the next round.
//
// [Arguments] parses that raw text, tolerating the double-encoded form
// some models emit (a JSON string containing the argument object).
package tool
