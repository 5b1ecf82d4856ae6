// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/docagent/lib/agent"
	"github.com/bureau-foundation/docagent/lib/document"
)

// previewWidth bounds tool arguments and results echoed to the
// console, in terminal cells.
const previewWidth = 160

// maxInputLine is the longest input line the console accepts.
const maxInputLine = 1 << 20

// processor runs one conversation turn. *agent.Loop implements it.
type processor interface {
	Process(ctx context.Context, input string) error
}

// exportFunc writes the current report to path.
type exportFunc func(path string) (document.Document, error)

type consoleStyles struct {
	user    lipgloss.Style
	label   lipgloss.Style
	tool    lipgloss.Style
	result  lipgloss.Style
	failure lipgloss.Style
	notice  lipgloss.Style
}

// console is the interactive front end: it reads user lines, prints
// streamed text and renders loop events. It implements agent.EventSink
// and is driven from the loop goroutine only.
type console struct {
	input  io.Reader
	output io.Writer
	color  bool
	styles consoleStyles
	export exportFunc

	// streamed holds the text delivered through delta for the
	// completion in progress.
	streamed strings.Builder
}

// newConsole creates a console. color selects ANSI styling; without it
// every style renders plain text.
func newConsole(input io.Reader, output io.Writer, color bool, export exportFunc) *console {
	renderer := lipgloss.NewRenderer(output)
	if color {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}

	return &console{
		input:  input,
		output: output,
		color:  color,
		export: export,
		styles: consoleStyles{
			user:    renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
			label:   renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
			tool:    renderer.NewStyle().Foreground(lipgloss.Color("245")),
			result:  renderer.NewStyle().Foreground(lipgloss.Color("241")),
			failure: renderer.NewStyle().Foreground(lipgloss.Color("203")),
			notice:  renderer.NewStyle().Italic(true).Foreground(lipgloss.Color("178")),
		},
	}
}

// Run reads lines until EOF, an empty line, "exit", or cancellation of
// ctx, passing each one to loop. Lines starting with "/" are console
// commands. A cancelled turn ends the session without error.
func (console *console) Run(ctx context.Context, loop processor) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(console.input)
		scanner.Buffer(make([]byte, 64*1024), maxInputLine)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	console.greet()
	for {
		fmt.Fprint(console.output, console.styles.user.Render("You >")+" ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(console.output)
			return nil
		case received, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				default:
				}
				fmt.Fprintln(console.output)
				console.farewell()
				return nil
			}
			line = received
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.EqualFold(trimmed, "exit") {
			console.farewell()
			return nil
		}
		if strings.HasPrefix(trimmed, "/") {
			console.command(trimmed)
			continue
		}

		if err := loop.Process(ctx, line); err != nil {
			if ctx.Err() != nil {
				console.finishLine()
				console.printNotice("Interrupted.")
				return nil
			}
			return err
		}
	}
}

func (console *console) greet() {
	fmt.Fprintln(console.output, "Hello! I am your report-writing assistant.")
	fmt.Fprintln(console.output, "Ask anything, for example: 'Which report templates are there?' or 'Show me the outline of the project proposal report'.")
	fmt.Fprintln(console.output, "Type /help for console commands, or exit to quit.")
	fmt.Fprintln(console.output, strings.Repeat("-", 68))
}

func (console *console) farewell() {
	fmt.Fprintln(console.output, "Thank you for using docagent!")
}

// command runs a console command line such as "/export report.md".
func (console *console) command(line string) {
	name, argument, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	argument = strings.TrimSpace(argument)

	switch name {
	case "export":
		if argument == "" {
			console.printFailure("usage: /export FILE (.md or .html)")
			return
		}
		if console.export == nil {
			console.printFailure("export is not available")
			return
		}
		exported, err := console.export(argument)
		if err != nil {
			console.printFailure(err.Error())
			return
		}
		console.printNotice(fmt.Sprintf("Exported %q with %d chapters to %s.", exported.Title, len(exported.Chapters), argument))
	case "help":
		fmt.Fprintln(console.output, "  /export FILE   write the chapters written so far to FILE (.md or .html)")
		fmt.Fprintln(console.output, "  /help          show this help")
		fmt.Fprintln(console.output, "  exit           quit (so does an empty line)")
	default:
		console.printFailure(fmt.Sprintf("unknown command /%s (try /help)", name))
	}
}

// delta prints a streamed text fragment.
func (console *console) delta(text string) {
	if console.streamed.Len() == 0 {
		fmt.Fprint(console.output, console.styles.label.Render("Assistant >")+" ")
	}
	console.streamed.WriteString(text)
	fmt.Fprint(console.output, text)
}

// finishLine ends a line of streamed text, if one is open.
func (console *console) finishLine() string {
	streamed := console.streamed.String()
	if streamed != "" {
		fmt.Fprintln(console.output)
		console.streamed.Reset()
	}
	return streamed
}

// Write renders a loop event.
func (console *console) Write(event agent.Event) error {
	switch event.Type {
	case agent.EventTypeResponse:
		content := event.Response.Content
		// Streamed text is already on screen; a transport failure
		// replaces it with a diagnostic that is not.
		if streamed := console.finishLine(); streamed != "" && streamed == content {
			return nil
		}
		fmt.Fprintln(console.output, console.styles.label.Render("Assistant >")+" "+content)

	case agent.EventTypeToolCall:
		console.finishLine()
		call := event.ToolCall
		if call.Dropped {
			console.printNotice(fmt.Sprintf("Skipped %s: only the first tool call of a response runs.", call.Name))
			return nil
		}
		fmt.Fprintln(console.output, console.styles.tool.Render("  → "+call.Name)+" "+console.highlightJSON(preview(call.Arguments)))

	case agent.EventTypeToolResult:
		console.finishLine()
		result := event.ToolResult
		style := console.styles.result
		if result.IsError {
			style = console.styles.failure
		}
		fmt.Fprintln(console.output, style.Render("  ← "+result.Name+": "+preview(result.Output)))

	case agent.EventTypeCompressed:
		console.finishLine()
		compressed := event.Compressed
		message := fmt.Sprintf("History compressed: %d → %d tokens (%d reasoning compressed, %d messages removed).",
			compressed.TokensBefore, compressed.TokensAfter, compressed.SoftCompressed, compressed.MessagesRemoved)
		if compressed.OverBudget {
			message += " Still over budget."
		}
		console.printNotice(message)

	case agent.EventTypeSystem:
		console.finishLine()
		console.printNotice(event.System.Message)
	}
	return nil
}

func (console *console) printNotice(message string) {
	fmt.Fprintln(console.output, console.styles.notice.Render(message))
}

func (console *console) printFailure(message string) {
	fmt.Fprintln(console.output, console.styles.failure.Render(message))
}

// highlightJSON colors JSON text for the terminal. Without color, or
// when highlighting fails, the text is returned unchanged.
func (console *console) highlightJSON(text string) string {
	if !console.color || text == "" {
		return text
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, text, "json", "terminal256", "monokai"); err != nil {
		return text
	}
	return buffer.String()
}

// preview collapses text to a single line and truncates it to
// previewWidth cells.
func preview(text string) string {
	line := strings.Join(strings.Fields(ansi.Strip(text)), " ")
	return ansi.Truncate(line, previewWidth, "…")
}
