// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package context

import "github.com/bureau-foundation/docagent/lib/llm"

// CompressedPlaceholder replaces the text of assistant tool-call
// messages during soft compression.
const CompressedPlaceholder = "[reasoning compressed]"

// softCompress replaces the content of every assistant message in
// [1, len-2) that carries tool calls and is not already compressed.
// Tool calls are kept. Returns the indices it changed; a second run
// over the result changes nothing.
func softCompress(messages []llm.Message) []int {
	var changed []int
	for i := 1; i < len(messages)-2; i++ {
		message := messages[i]
		if message.Role() != llm.RoleAssistant || !message.HasToolCalls() {
			continue
		}
		if text, present := message.Content(); present && text == CompressedPlaceholder {
			continue
		}
		messages[i] = message.WithContent(CompressedPlaceholder)
		changed = append(changed, i)
	}
	return changed
}

// hardCompress deletes the oldest closed turn group. Returns the
// shortened slice and the deleted range; removed is zero when fewer
// than two user messages exist and nothing was deleted.
func hardCompress(messages []llm.Message) (result []llm.Message, start, removed int) {
	group, ok := oldestClosedTurn(messages)
	if !ok {
		return messages, 0, 0
	}
	removed = group.endIndex - group.startIndex
	result = append(messages[:group.startIndex], messages[group.endIndex:]...)
	// Clear the vacated tail so deleted messages are not retained by
	// the backing array.
	clear(messages[len(result):])
	return result, group.startIndex, removed
}
