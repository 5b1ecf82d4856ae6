// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"io"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/docagent/lib/llm"
)

// Store is the history of one conversation. Index 0 holds the system
// preamble, which compression never touches.
//
// Store is not safe for concurrent use. Each conversation owns its own
// Store; the agent loop calls Append and Snapshot from one goroutine.
type Store struct {
	messages []llm.Message
	counter  TokenCounter
	budget   int
	logger   *slog.Logger

	compressions    int
	lastCompression Compression
}

// Compression describes the outcome of the most recent compression
// run, for diagnostics.
type Compression struct {
	// Sequence numbers compression runs of one store, starting at 1.
	Sequence int

	// TokensBefore and TokensAfter are the history totals around the
	// run.
	TokensBefore int
	TokensAfter  int

	// SoftCompressed is the number of assistant messages given the
	// placeholder.
	SoftCompressed int

	// MessagesRemoved is the size of the turn group the hard stage
	// deleted, zero if it did not run or found nothing to delete.
	MessagesRemoved int

	// OverBudget is true when the history still exceeds the budget
	// after both stages.
	OverBudget bool
}

// NewStore creates an empty store that compresses when the history
// exceeds tokenBudget tokens as counted by counter. A nil counter
// means [CharCounter]; a non-positive budget means [DefaultTokenBudget].
func NewStore(counter TokenCounter, tokenBudget int, logger *slog.Logger) *Store {
	if counter == nil {
		counter = CharCounter{}
	}
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		counter: counter,
		budget:  tokenBudget,
		logger:  logger,
	}
}

// Append adds message to the end of the history, then compresses the
// history if it is over budget.
func (store *Store) Append(message llm.Message) {
	store.messages = append(store.messages, message)
	store.compressIfNeeded()
}

// Snapshot returns a copy of the history. Later appends and
// compression do not affect it.
func (store *Store) Snapshot() []llm.Message {
	return slices.Clone(store.messages)
}

// Len returns the number of messages in the history.
func (store *Store) Len() int {
	return len(store.messages)
}

// Budget returns the token budget.
func (store *Store) Budget() int {
	return store.budget
}

// TokenCount returns the token total of the history. It serializes and
// counts every message on each call.
func (store *Store) TokenCount() int {
	return historyTokens(store.counter, store.messages)
}

// LastCompression returns the outcome of the most recent compression
// run, and false if compression has never run.
func (store *Store) LastCompression() (Compression, bool) {
	return store.lastCompression, store.lastCompression.Sequence > 0
}

func (store *Store) compressIfNeeded() {
	tokens := store.TokenCount()
	if tokens <= store.budget {
		return
	}

	store.compressions++
	result := Compression{Sequence: store.compressions, TokensBefore: tokens}
	store.logger.Info("history over token budget, compressing",
		"tokens", tokens,
		"budget", store.budget,
		"messages", len(store.messages),
	)

	changed := softCompress(store.messages)
	result.SoftCompressed = len(changed)
	tokens = store.TokenCount()
	if len(changed) > 0 {
		store.logger.Info("soft compression done",
			"compressed", len(changed),
			"tokens", tokens,
		)
	} else {
		store.logger.Debug("no soft compression targets")
	}

	if tokens > store.budget {
		var start, removed int
		store.messages, start, removed = hardCompress(store.messages)
		result.MessagesRemoved = removed
		if removed > 0 {
			tokens = store.TokenCount()
			store.logger.Info("hard compression removed oldest turn",
				"start", start,
				"removed", removed,
				"tokens", tokens,
			)
		} else {
			store.logger.Warn("history over token budget with fewer than two user turns",
				"tokens", tokens,
				"budget", store.budget,
			)
		}
	}

	result.TokensAfter = tokens
	result.OverBudget = tokens > store.budget
	store.lastCompression = result
}
