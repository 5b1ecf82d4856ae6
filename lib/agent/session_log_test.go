// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/docagent/lib/clock"
)

func readLogLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	defer file.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("line %d is not JSON: %v: %s", len(lines)+1, err, scanner.Text())
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning log: %v", err)
	}
	return lines
}

func TestSessionLogWriteAndRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.jsonl")
	log, err := OpenSessionLog(path, "session-1", clock.Real())
	if err != nil {
		t.Fatalf("OpenSessionLog: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: now, Type: EventTypePrompt, Turn: 1, Prompt: &PromptEvent{Content: "write a <proposal>"}},
		{Timestamp: now, Type: EventTypeToolCall, Turn: 1, ToolCall: &ToolCallEvent{ID: "1", Name: "list_outline_templates", Arguments: "{}"}},
		{Timestamp: now, Type: EventTypeToolCall, Turn: 1, ToolCall: &ToolCallEvent{ID: "2", Name: "list_node_templates", Dropped: true}},
		{Timestamp: now, Type: EventTypeToolResult, Turn: 1, ToolResult: &ToolResultEvent{ID: "1", Name: "list_outline_templates", Output: `["A"]`}},
		{Timestamp: now, Type: EventTypeToolResult, Turn: 1, ToolResult: &ToolResultEvent{ID: "3", Name: "nope", IsError: true, Output: "error"}},
		{Timestamp: now, Type: EventTypeCompressed, Turn: 1, Compressed: &CompressedEvent{TokensBefore: 10, TokensAfter: 5}},
		{Timestamp: now, Type: EventTypeResponse, Turn: 1, Response: &ResponseEvent{Content: "done"}},
	}
	for _, event := range events {
		if err := log.Write(event); err != nil {
			t.Fatalf("Write(%s): %v", event.Type, err)
		}
	}

	summary := log.Summary()
	if summary.EventCount != 7 {
		t.Errorf("EventCount = %d, want 7", summary.EventCount)
	}
	if summary.PromptCount != 1 || summary.ToolCallCount != 1 || summary.DroppedCount != 1 {
		t.Errorf("summary counts = %+v, want 1 prompt, 1 tool call, 1 dropped", summary)
	}
	if summary.ToolErrorCount != 1 || summary.CompressedCount != 1 {
		t.Errorf("summary counts = %+v, want 1 tool error, 1 compression", summary)
	}
	if summary.SessionID != "session-1" {
		t.Errorf("SessionID = %q, want session-1", summary.SessionID)
	}

	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLogLines(t, path)
	if len(lines) != len(events) {
		t.Fatalf("got %d lines, want %d", len(lines), len(events))
	}
	for i, line := range lines {
		if line["session_id"] != "session-1" {
			t.Errorf("line %d session_id = %v, want session-1", i, line["session_id"])
		}
		if line["type"] != string(events[i].Type) {
			t.Errorf("line %d type = %v, want %s", i, line["type"], events[i].Type)
		}
	}

	prompt, ok := lines[0]["prompt"].(map[string]any)
	if !ok || prompt["content"] != "write a <proposal>" {
		t.Errorf("prompt payload = %v, want unescaped content", lines[0]["prompt"])
	}
	if _, present := lines[0]["tool_call"]; present {
		t.Error("prompt line carries a tool_call payload")
	}
}

func TestSessionLogAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.jsonl")
	for _, sessionID := range []string{"first", "second"} {
		log, err := OpenSessionLog(path, sessionID, clock.Real())
		if err != nil {
			t.Fatalf("OpenSessionLog(%s): %v", sessionID, err)
		}
		if err := log.Write(Event{Type: EventTypePrompt, Prompt: &PromptEvent{Content: sessionID}}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := log.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	lines := readLogLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["session_id"] != "first" || lines[1]["session_id"] != "second" {
		t.Errorf("session IDs = %v, %v; want first, second", lines[0]["session_id"], lines[1]["session_id"])
	}
}

func TestSessionLogCloseIdempotent(t *testing.T) {
	t.Parallel()

	log, err := OpenSessionLog(filepath.Join(t.TempDir(), "session.jsonl"), "", clock.Real())
	if err != nil {
		t.Fatalf("OpenSessionLog: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := log.Write(Event{Type: EventTypeSystem, System: &SystemEvent{Subtype: "shutdown"}}); err == nil {
		t.Error("Write after Close succeeded, want error")
	}
}

func TestSessionLogDuration(t *testing.T) {
	t.Parallel()

	fakeClock := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log, err := OpenSessionLog(filepath.Join(t.TempDir(), "session.jsonl"), "timed", fakeClock)
	if err != nil {
		t.Fatalf("OpenSessionLog: %v", err)
	}
	defer log.Close()

	fakeClock.Advance(90 * time.Second)
	if got := log.Summary().Duration; got != 90*time.Second {
		t.Errorf("Duration = %v, want 90s", got)
	}
}

func TestMultiSink(t *testing.T) {
	t.Parallel()

	first := &recordingSink{}
	second := &recordingSink{}
	failing := EventSinkFunc(func(Event) error { return os.ErrClosed })

	sink := MultiSink{first, failing, second}
	err := sink.Write(Event{Type: EventTypeSystem, System: &SystemEvent{Subtype: "init"}})
	if err == nil {
		t.Error("Write succeeded, want the failing sink's error")
	}
	if len(first.events) != 1 || len(second.events) != 1 {
		t.Errorf("events delivered = %d, %d; want 1 each", len(first.events), len(second.events))
	}
}
