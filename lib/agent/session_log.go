// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/docagent/lib/clock"
)

// SessionLog writes loop events as JSONL (one JSON object per line) to
// a file. It implements [EventSink] and is safe for concurrent use.
//
// Sessions append to the file, so one path can collect several runs;
// each line carries the session ID to tell them apart.
type SessionLog struct {
	file      *os.File
	encoder   *json.Encoder
	mutex     sync.Mutex
	closed    bool
	sessionID string
	clock     clock.Clock

	// Summary counters, protected by mutex.
	startTime       time.Time
	eventCount      int64
	promptCount     int64
	toolCallCount   int64
	droppedCount    int64
	toolErrorCount  int64
	compressedCount int64
}

// sessionLogLine is the on-disk form of an event.
type sessionLogLine struct {
	SessionID string `json:"session_id,omitempty"`
	Event
}

// OpenSessionLog opens path for appending, creating it if needed. The
// session duration in [SessionLog.Summary] is measured on c.
func OpenSessionLog(path, sessionID string, c clock.Clock) (*SessionLog, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("agent: opening session log %q: %w", path, err)
	}
	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	return &SessionLog{
		file:      file,
		encoder:   encoder,
		sessionID: sessionID,
		clock:     c,
		startTime: c.Now(),
	}, nil
}

// Path returns the log file path.
func (log *SessionLog) Path() string {
	return log.file.Name()
}

// Write appends event as one line and syncs the file, so the log
// survives a crash mid-session.
func (log *SessionLog) Write(event Event) error {
	log.mutex.Lock()
	defer log.mutex.Unlock()

	if log.closed {
		return fmt.Errorf("agent: session log %q is closed", log.file.Name())
	}
	if err := log.encoder.Encode(sessionLogLine{SessionID: log.sessionID, Event: event}); err != nil {
		return fmt.Errorf("agent: encoding session log event: %w", err)
	}
	if err := log.file.Sync(); err != nil {
		return fmt.Errorf("agent: syncing session log: %w", err)
	}

	log.eventCount++
	switch event.Type {
	case EventTypePrompt:
		log.promptCount++
	case EventTypeToolCall:
		if event.ToolCall != nil && event.ToolCall.Dropped {
			log.droppedCount++
		} else {
			log.toolCallCount++
		}
	case EventTypeToolResult:
		if event.ToolResult != nil && event.ToolResult.IsError {
			log.toolErrorCount++
		}
	case EventTypeCompressed:
		log.compressedCount++
	}
	return nil
}

// Close closes the file. Close is idempotent.
func (log *SessionLog) Close() error {
	log.mutex.Lock()
	defer log.mutex.Unlock()
	if log.closed {
		return nil
	}
	log.closed = true
	return log.file.Close()
}

// SessionSummary aggregates the events written to a SessionLog.
type SessionSummary struct {
	SessionID       string        `json:"session_id"`
	EventCount      int64         `json:"event_count"`
	PromptCount     int64         `json:"prompt_count"`
	ToolCallCount   int64         `json:"tool_call_count"`
	DroppedCount    int64         `json:"dropped_count"`
	ToolErrorCount  int64         `json:"tool_error_count"`
	CompressedCount int64         `json:"compressed_count"`
	Duration        time.Duration `json:"duration"`
}

// Summary returns the counters of all events written so far.
func (log *SessionLog) Summary() SessionSummary {
	log.mutex.Lock()
	defer log.mutex.Unlock()
	return SessionSummary{
		SessionID:       log.sessionID,
		EventCount:      log.eventCount,
		PromptCount:     log.promptCount,
		ToolCallCount:   log.toolCallCount,
		DroppedCount:    log.droppedCount,
		ToolErrorCount:  log.toolErrorCount,
		CompressedCount: log.compressedCount,
		Duration:        clock.Since(log.clock, log.startTime),
	}
}
