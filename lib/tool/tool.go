// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"encoding/json"

	"github.com/bureau-foundation/docagent/lib/llm"
)

// Tool is a named capability the model can invoke.
type Tool interface {
	// Name is the registered name the model calls the tool by.
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Parameters is the JSON Schema of the argument object.
	Parameters() json.RawMessage

	// Execute runs the tool with the model's raw argument text and
	// returns the result text. It must not panic or fail; problems are
	// reported in the returned text.
	Execute(arguments string) string
}

// Definition returns the catalog entry for tool.
func Definition(tool Tool) llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        tool.Name(),
		Description: tool.Description(),
		Parameters:  tool.Parameters(),
	}
}
