// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/docagent/lib/config"
	llmcontext "github.com/bureau-foundation/docagent/lib/llm/context"
	"github.com/bureau-foundation/docagent/lib/memory"
)

func TestTokenBudget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		model   string
		context config.ContextConfig
		want    int
	}{
		{"explicit budget", "Qwen/Qwen3-32B", config.ContextConfig{Budget: 5000, Window: 100, Ratio: 0.5}, 5000},
		{"configured window", "unknown", config.ContextConfig{Window: 10_000, Ratio: 0.5}, 5000},
		{"registered model", "Qwen/Qwen3-4B", config.ContextConfig{Ratio: 0.5}, 16_384},
		{"unknown model", "vllm-qwen3-14b", config.ContextConfig{Ratio: 0.75}, llmcontext.DefaultTokenBudget},
		{"zero ratio", "vllm-qwen3-14b", config.ContextConfig{}, llmcontext.DefaultTokenBudget},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Model = test.model
			cfg.Context = test.context
			if got := tokenBudget(cfg); got != test.want {
				t.Errorf("tokenBudget = %d, want %d", got, test.want)
			}
		})
	}
}

func TestLoadSystemPrompt(t *testing.T) {
	t.Parallel()

	builtin, err := loadSystemPrompt("")
	if err != nil {
		t.Fatalf("loadSystemPrompt(\"\"): %v", err)
	}
	if builtin == "" || builtin != strings.TrimSpace(builtin) {
		t.Errorf("built-in prompt is empty or untrimmed: %q", builtin)
	}

	directory := t.TempDir()
	custom := filepath.Join(directory, "prompt.md")
	if err := os.WriteFile(custom, []byte("\nYou write reports.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	prompt, err := loadSystemPrompt(custom)
	if err != nil {
		t.Fatalf("loadSystemPrompt(custom): %v", err)
	}
	if prompt != "You write reports." {
		t.Errorf("custom prompt = %q", prompt)
	}

	blank := filepath.Join(directory, "blank.md")
	if err := os.WriteFile(blank, []byte(" \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadSystemPrompt(blank); err == nil {
		t.Error("loadSystemPrompt accepted a blank file")
	}
	if _, err := loadSystemPrompt(filepath.Join(directory, "missing.md")); err == nil {
		t.Error("loadSystemPrompt accepted a missing file")
	}
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	memoryStore, err := memory.Open(filepath.Join(t.TempDir(), "memory.json"))
	if err != nil {
		t.Fatalf("memory.Open: %v", err)
	}
	registry, err := newRegistry(nil, memoryStore)
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	want := []string{
		"list_outline_templates",
		"get_outline_details",
		"list_node_templates",
		"get_knowledge",
		"get_ai_generate",
		"set_memory",
		"get_memory",
		"list_memory",
		"delete_memory",
	}
	if got := registry.Names(); !slices.Equal(got, want) {
		t.Errorf("Names = %q, want %q", got, want)
	}
	if definitions := registry.Definitions(); len(definitions) != len(want) {
		t.Errorf("Definitions has %d entries, want %d", len(definitions), len(want))
	}
}

func TestNewTokenCounterFallsBack(t *testing.T) {
	t.Parallel()

	counter := newTokenCounter("no_such_encoding", discardLogger())
	if _, ok := counter.(llmcontext.CharCounter); !ok {
		t.Errorf("newTokenCounter(unknown) = %T, want CharCounter", counter)
	}
}
