// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/docagent/lib/llm"
)

// ErrDuplicateTool is returned when a tool name is registered twice.
var ErrDuplicateTool = errors.New("tool: duplicate tool name")

// ErrUnknownTool is returned by [Registry.Execute] for a name that was
// never registered.
var ErrUnknownTool = errors.New("tool: unknown tool")

// Registry maps tool names to tools. Definitions are returned in
// registration order so the catalog sent to the model is stable.
// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tools in order. It stops at the first tool that is nil,
// has an empty name, or reuses a registered name.
func (registry *Registry) Register(tools ...Tool) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	for _, tool := range tools {
		if tool == nil {
			return fmt.Errorf("tool: registering nil tool")
		}
		name := tool.Name()
		if name == "" {
			return fmt.Errorf("tool: registering tool with empty name")
		}
		if _, exists := registry.tools[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		registry.tools[name] = tool
		registry.order = append(registry.order, name)
	}
	return nil
}

// Lookup returns the tool registered as name.
func (registry *Registry) Lookup(name string) (Tool, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	tool, found := registry.tools[name]
	return tool, found
}

// Names returns the registered names in registration order.
func (registry *Registry) Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return append([]string(nil), registry.order...)
}

// Definitions returns the catalog of every registered tool, in
// registration order.
func (registry *Registry) Definitions() []llm.ToolDefinition {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	definitions := make([]llm.ToolDefinition, 0, len(registry.order))
	for _, name := range registry.order {
		definitions = append(definitions, Definition(registry.tools[name]))
	}
	return definitions
}

// Execute runs the named tool with raw argument text. The only error is
// ErrUnknownTool; tool failures are part of the returned text.
func (registry *Registry) Execute(name, arguments string) (string, error) {
	tool, found := registry.Lookup(name)
	if !found {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool.Execute(arguments), nil
}
