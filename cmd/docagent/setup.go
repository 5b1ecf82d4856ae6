// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bureau-foundation/docagent/lib/config"
	llmcontext "github.com/bureau-foundation/docagent/lib/llm/context"
	"github.com/bureau-foundation/docagent/lib/memory"
	"github.com/bureau-foundation/docagent/lib/tool"
	"github.com/bureau-foundation/docagent/lib/tool/report"
)

//go:embed system_prompt.md
var defaultSystemPrompt string

// loadSystemPrompt reads the system prompt from path, or returns the
// built-in prompt when path is empty.
func loadSystemPrompt(path string) (string, error) {
	if path == "" {
		return strings.TrimSpace(defaultSystemPrompt), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading system prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("system prompt %s is empty", path)
	}
	return prompt, nil
}

// tokenBudget derives the history budget: an explicit context.budget
// wins, otherwise the ratio is applied to the configured window or the
// model's registered window.
func tokenBudget(cfg *config.Config) int {
	if cfg.Context.Budget > 0 {
		return cfg.Context.Budget
	}
	window := cfg.Context.Window
	if window == 0 {
		window = llmcontext.ContextWindowForModel(cfg.Model)
	}
	return llmcontext.Budget{ContextWindow: window, Ratio: cfg.Context.Ratio}.TokenBudget()
}

// newTokenCounter loads the tiktoken encoding, falling back to the
// character estimate when the encoding cannot be loaded (offline host
// with a cold cache).
func newTokenCounter(encoding string, logger *slog.Logger) llmcontext.TokenCounter {
	counter, err := llmcontext.NewTiktokenCounter(encoding)
	if err != nil {
		logger.Warn("token encoding unavailable, estimating from length",
			"encoding", encoding,
			"error", err,
		)
		return llmcontext.CharCounter{}
	}
	return counter
}

// newRegistry registers the report and memory tools. generator may be
// nil.
func newRegistry(generator *report.Generator, memoryStore *memory.Store) (*tool.Registry, error) {
	registry := tool.NewRegistry()
	if err := registry.Register(report.Tools(nil, nil, generator)...); err != nil {
		return nil, err
	}
	if err := registry.Register(memory.Tools(memoryStore)...); err != nil {
		return nil, err
	}
	return registry, nil
}
