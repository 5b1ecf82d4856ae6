// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package context

import "github.com/bureau-foundation/docagent/lib/llm"

// turnGroup identifies a contiguous slice of messages that form an
// atomic deletion unit. A turn group starts with a user message and
// includes all subsequent messages until the next user message.
//
// Examples of a single turn group:
//   - user → assistant(text)
//   - user → assistant(tool_calls) → tool → assistant(text)
//   - user → assistant(tool_calls) → tool → assistant(tool_calls) → tool → assistant(text)
type turnGroup struct {
	startIndex int // inclusive index into the message slice
	endIndex   int // exclusive index into the message slice
}

// identifyTurnGroups partitions a message slice into turn groups.
// Messages before the first user message (the system preamble) belong
// to no group. Returns nil if there is no user message.
func identifyTurnGroups(messages []llm.Message) []turnGroup {
	var groups []turnGroup
	currentStart := -1

	for i, message := range messages {
		if message.Role() == llm.RoleUser {
			if currentStart >= 0 {
				groups = append(groups, turnGroup{
					startIndex: currentStart,
					endIndex:   i,
				})
			}
			currentStart = i
		}
	}

	// Close the final group.
	if currentStart >= 0 {
		groups = append(groups, turnGroup{
			startIndex: currentStart,
			endIndex:   len(messages),
		})
	}

	return groups
}

// oldestClosedTurn returns the bounds of the first turn group when a
// later one exists, i.e. [p1, p2) for the first two user messages at
// p1 < p2. ok is false with fewer than two user messages: the only
// group is the one in progress and is never a deletion candidate.
func oldestClosedTurn(messages []llm.Message) (group turnGroup, ok bool) {
	groups := identifyTurnGroups(messages)
	if len(groups) < 2 {
		return turnGroup{}, false
	}
	return groups[0], true
}
