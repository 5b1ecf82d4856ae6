// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report provides the report-writing tools: outline templates,
// per-chapter content templates, knowledge lookup and AI generation.
//
// Content templates may contain call expressions the model is expected
// to evaluate itself, for example
//
//	Call_GetKnowledgeTool({CurrentProjectID},'Background')
//
// where Call_XxxTool names a tool and a braced name is a variable the
// model resolves from memory. The tools here only return the template
// text; expansion is driven by the system prompt.
package report
