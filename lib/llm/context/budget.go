// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package context

// DefaultContextWindow is the nominal context window the default
// budget is derived from (1024 * 1000 tokens).
const DefaultContextWindow = 1024 * 1000

// DefaultRatio is the fraction of the context window the history may
// occupy before compression starts.
const DefaultRatio = 0.75

// DefaultTokenBudget is DefaultContextWindow * DefaultRatio.
const DefaultTokenBudget = 768_000

// Budget derives the compression trigger from a model's context
// window.
type Budget struct {
	// ContextWindow is the model's total context window in tokens.
	// Zero means DefaultContextWindow.
	ContextWindow int

	// Ratio is the fraction of ContextWindow the serialized history
	// may use. Zero means DefaultRatio. The remainder covers the tool
	// catalog, chat template framing and the reply.
	Ratio float64
}

// TokenBudget returns the history token limit.
func (budget Budget) TokenBudget() int {
	window := budget.ContextWindow
	if window <= 0 {
		window = DefaultContextWindow
	}
	ratio := budget.Ratio
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	return int(float64(window) * ratio)
}

// modelRegistry maps model identifiers to their context window sizes
// in tokens. This is a best-effort lookup; models not in the registry
// fall back to DefaultContextWindow. The configuration can always set
// the window explicitly.
//
// Qwen3 sizes assume the YaRN-extended windows vLLM deployments
// usually enable; without rope scaling the dense models serve 32k.
var modelRegistry = map[string]int{
	// Qwen3.
	"Qwen/Qwen3-235B-A22B": 131_072,
	"Qwen/Qwen3-30B-A3B":   131_072,
	"Qwen/Qwen3-32B":       131_072,
	"Qwen/Qwen3-14B":       131_072,
	"Qwen/Qwen3-8B":        131_072,
	"Qwen/Qwen3-4B":        32_768,

	// Qwen2.5.
	"Qwen/Qwen2.5-72B-Instruct":   131_072,
	"Qwen/Qwen2.5-7B-Instruct":    131_072,
	"Qwen/Qwen2.5-7B-Instruct-1M": 1_010_000,

	// Other common vLLM deployments.
	"meta-llama/Llama-3.1-70B-Instruct": 128_000,
	"meta-llama/Llama-3.1-8B-Instruct":  128_000,
	"deepseek-ai/DeepSeek-V3":           64_000,

	// Hosted OpenAI-compatible endpoints.
	"gpt-4o":      128_000,
	"gpt-4o-mini": 128_000,
}

// ContextWindowForModel returns the context window size in tokens for
// the given model identifier, or DefaultContextWindow if the model is
// not in the registry.
func ContextWindowForModel(model string) int {
	if window, found := modelRegistry[model]; found {
		return window
	}
	return DefaultContextWindow
}
