// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/docagent/lib/agent"
	"github.com/bureau-foundation/docagent/lib/document"
)

// scriptedProcessor records inputs and plays a script against the
// console for each one.
type scriptedProcessor struct {
	inputs []string
	script func(input string) error
}

func (processor *scriptedProcessor) Process(ctx context.Context, input string) error {
	processor.inputs = append(processor.inputs, input)
	if processor.script == nil {
		return nil
	}
	return processor.script(input)
}

func TestConsoleEndsOnExitAndEmptyLine(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"hello\nexit\nignored\n", "hello\n\nignored\n", "hello\n"} {
		var output bytes.Buffer
		processor := &scriptedProcessor{}
		console := newConsole(strings.NewReader(input), &output, false, nil)

		if err := console.Run(context.Background(), processor); err != nil {
			t.Fatalf("Run(%q): %v", input, err)
		}
		if len(processor.inputs) != 1 || processor.inputs[0] != "hello" {
			t.Errorf("Run(%q) processed %q, want [hello]", input, processor.inputs)
		}
		if !strings.Contains(output.String(), "Thank you for using docagent!") {
			t.Errorf("Run(%q) output missing farewell:\n%s", input, output.String())
		}
	}
}

func TestConsoleRendersTurn(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	var console *console
	processor := &scriptedProcessor{script: func(input string) error {
		console.delta("Let me look ")
		console.delta("that up.")
		console.Write(agent.Event{Type: agent.EventTypeResponse, Response: &agent.ResponseEvent{Content: "Let me look that up.", ToolCalls: 1}})
		console.Write(agent.Event{Type: agent.EventTypeToolCall, ToolCall: &agent.ToolCallEvent{ID: "1", Name: "list_outline_templates", Arguments: "{}"}})
		console.Write(agent.Event{Type: agent.EventTypeToolResult, ToolResult: &agent.ToolResultEvent{ID: "1", Name: "list_outline_templates", Output: "[\"A\",\n\"B\"]"}})
		console.Write(agent.Event{Type: agent.EventTypeResponse, Response: &agent.ResponseEvent{Content: "There are two."}})
		return nil
	}}
	console = newConsole(strings.NewReader("templates?\n"), &output, false, nil)

	if err := console.Run(context.Background(), processor); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := output.String()
	for _, want := range []string{
		"You > ",
		"Assistant > Let me look that up.\n",
		"  → list_outline_templates {}\n",
		"  ← list_outline_templates: [\"A\", \"B\"]\n",
		"Assistant > There are two.\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Count(text, "Let me look that up.") != 1 {
		t.Errorf("streamed text printed more than once:\n%s", text)
	}
	if strings.Contains(text, "\x1b[") {
		t.Errorf("plain console emitted ANSI escapes:\n%q", text)
	}
}

func TestConsoleShowsDiagnosticAfterPartialStream(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	console := newConsole(strings.NewReader(""), &output, false, nil)

	console.delta("partial")
	console.Write(agent.Event{Type: agent.EventTypeResponse, Response: &agent.ResponseEvent{Content: "An error occurred: stream reset"}})

	want := "Assistant > partial\nAssistant > An error occurred: stream reset\n"
	if got := output.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConsoleRendersNotices(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	console := newConsole(strings.NewReader(""), &output, false, nil)

	console.Write(agent.Event{Type: agent.EventTypeToolCall, ToolCall: &agent.ToolCallEvent{ID: "2", Name: "get_knowledge", Dropped: true}})
	console.Write(agent.Event{Type: agent.EventTypeToolResult, ToolResult: &agent.ToolResultEvent{Name: "nope", IsError: true, Output: "error: unknown tool 'nope'"}})
	console.Write(agent.Event{Type: agent.EventTypeCompressed, Compressed: &agent.CompressedEvent{TokensBefore: 900, TokensAfter: 400, SoftCompressed: 2, MessagesRemoved: 4}})
	console.Write(agent.Event{Type: agent.EventTypeSystem, System: &agent.SystemEvent{Subtype: "round_limit", Message: "Stopped after 25 tool rounds without a final answer."}})

	text := output.String()
	for _, want := range []string{
		"Skipped get_knowledge: only the first tool call of a response runs.",
		"  ← nope: error: unknown tool 'nope'",
		"History compressed: 900 → 400 tokens (2 reasoning compressed, 4 messages removed).",
		"Stopped after 25 tool rounds without a final answer.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestConsoleExportCommand(t *testing.T) {
	t.Parallel()

	var exported []string
	export := func(path string) (document.Document, error) {
		exported = append(exported, path)
		if path == "bad.md" {
			return document.Document{}, errors.New("document: writing bad.md: denied")
		}
		return document.Document{Title: "Harbor", Chapters: []document.Chapter{{Name: "A"}}}, nil
	}

	var output bytes.Buffer
	processor := &scriptedProcessor{}
	console := newConsole(strings.NewReader("/export report.md\n/export bad.md\n/export\n/nope\n/help\nexit\n"), &output, false, export)

	if err := console.Run(context.Background(), processor); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(processor.inputs) != 0 {
		t.Errorf("commands reached the model: %q", processor.inputs)
	}
	if len(exported) != 2 {
		t.Errorf("exports = %q, want two", exported)
	}
	text := output.String()
	for _, want := range []string{
		`Exported "Harbor" with 1 chapters to report.md.`,
		"document: writing bad.md: denied",
		"usage: /export FILE",
		"unknown command /nope",
		"/export FILE   write the chapters",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestConsoleInterruptedTurn(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var output bytes.Buffer
	processor := &scriptedProcessor{script: func(string) error {
		cancel()
		return context.Canceled
	}}
	console := newConsole(strings.NewReader("hello\nsecond\n"), &output, false, nil)

	if err := console.Run(ctx, processor); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(processor.inputs) != 1 {
		t.Errorf("processed %q, want only the first line", processor.inputs)
	}
	if !strings.Contains(output.String(), "Interrupted.") {
		t.Errorf("output missing interruption notice:\n%s", output.String())
	}
}

func TestConsoleProcessError(t *testing.T) {
	t.Parallel()

	failure := errors.New("boom")
	processor := &scriptedProcessor{script: func(string) error { return failure }}
	console := newConsole(strings.NewReader("hello\n"), &bytes.Buffer{}, false, nil)

	if err := console.Run(context.Background(), processor); !errors.Is(err, failure) {
		t.Errorf("Run error = %v, want %v", err, failure)
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	if got := preview("a\n  b\tc"); got != "a b c" {
		t.Errorf("preview collapses whitespace: got %q", got)
	}
	long := strings.Repeat("x", previewWidth+50)
	got := preview(long)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) != previewWidth {
		t.Errorf("preview of long text = %d runes ending %q, want %d ending with an ellipsis",
			len([]rune(got)), got[len(got)-3:], previewWidth)
	}
}

func TestHighlightJSONPlainWithoutColor(t *testing.T) {
	t.Parallel()

	console := newConsole(strings.NewReader(""), &bytes.Buffer{}, false, nil)
	if got := console.highlightJSON(`{"a":1}`); got != `{"a":1}` {
		t.Errorf("highlightJSON without color = %q", got)
	}

	colored := newConsole(strings.NewReader(""), &bytes.Buffer{}, true, nil)
	if got := colored.highlightJSON(`{"a":1}`); !strings.Contains(got, "\x1b[") {
		t.Errorf("highlightJSON with color = %q, want ANSI escapes", got)
	}
}
