// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"encoding/json"
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/bureau-foundation/docagent/lib/llm"
)

// DefaultEncoding is the BPE encoding used to count tokens when none
// is configured.
const DefaultEncoding = "cl100k_base"

// TokenCounter counts the tokens of a text in some model vocabulary.
type TokenCounter interface {
	CountTokens(text string) int
}

// TiktokenCounter counts tokens with a tiktoken BPE encoding.
// cl100k_base does not match the Qwen3 vocabulary exactly; it is close
// enough for a compression trigger and is what budgets were tuned
// against.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding. Loading may fetch the
// BPE ranks over the network (cached under TIKTOKEN_CACHE_DIR), so it
// fails on an offline host with a cold cache; callers typically fall
// back to [CharCounter].
func NewTiktokenCounter(encodingName string) (*TiktokenCounter, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("llm/context: loading encoding %q: %w", encodingName, err)
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

// CountTokens returns the number of BPE tokens in text. Special token
// text is counted as ordinary text.
func (counter *TiktokenCounter) CountTokens(text string) int {
	return len(counter.encoding.Encode(text, nil, nil))
}

// defaultCharactersPerToken is the ratio used by CharCounter. 4.0 is
// conservative for English text with code; BPE tokenizers typically
// average 3.5-4.5 characters per token. CJK text runs closer to one
// character per token but is several bytes per character in UTF-8,
// which keeps the byte-based estimate in range.
const defaultCharactersPerToken = 4.0

// CharCounter estimates tokens from the byte length of the text. It
// needs no vocabulary and always rounds up.
type CharCounter struct{}

// CountTokens returns ceil(len(text) / 4).
func (CharCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return int((float64(len(text)) + defaultCharactersPerToken - 1) / defaultCharactersPerToken)
}

// messageTokens counts the tokens of one message in its wire form, the
// same JSON that is sent in the request body. A message that cannot be
// serialized counts as its text.
func messageTokens(counter TokenCounter, message llm.Message) int {
	data, err := json.Marshal(message)
	if err != nil {
		return counter.CountTokens(message.Text())
	}
	return counter.CountTokens(string(data))
}

// historyTokens is the sum of messageTokens over messages.
func historyTokens(counter TokenCounter, messages []llm.Message) int {
	total := 0
	for _, message := range messages {
		total += messageTokens(counter, message)
	}
	return total
}
