// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// docagent is an interactive report-writing assistant. It talks to an
// OpenAI-compatible chat completions endpoint (typically vLLM serving a
// Qwen3 model), lets the model call local tools for outline templates,
// content templates, knowledge lookup and a persistent memory, and
// keeps the conversation within a token budget by compressing old
// turns.
//
// Configuration comes from a YAML file named by --config or
// DOCAGENT_CONFIG; without one, built-in defaults apply. Flags override
// individual values. The API key is read from the environment variable
// named by api_key_env (default DOCAGENT_API_KEY).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/docagent/lib/agent"
	"github.com/bureau-foundation/docagent/lib/clock"
	"github.com/bureau-foundation/docagent/lib/config"
	"github.com/bureau-foundation/docagent/lib/document"
	"github.com/bureau-foundation/docagent/lib/llm"
	llmcontext "github.com/bureau-foundation/docagent/lib/llm/context"
	"github.com/bureau-foundation/docagent/lib/memory"
	"github.com/bureau-foundation/docagent/lib/tool/report"
	"github.com/bureau-foundation/docagent/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := newFlags()
	if err := flags.set.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flags.set)
			return nil
		}
		return err
	}
	if flags.showHelp {
		printHelp(flags.set)
		return nil
	}
	if flags.showVersion {
		version.Print(os.Stdout, "docagent")
		return nil
	}
	if args := flags.set.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	flags.apply(cfg)
	cfg.ExpandVariables()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	sessionID := uuid.NewString()
	logger = logger.With("session", sessionID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	memoryStore, err := memory.Open(cfg.Paths.Memory)
	if err != nil {
		return err
	}
	defer func() {
		if err := memoryStore.Close(); err != nil {
			logger.Error("closing memory store", "error", err)
		}
	}()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	provider := llm.NewOpenAI(httpClient, cfg.Endpoint, cfg.APIKey(), logger)

	// Content generation is a separate single-shot request without the
	// tool catalog.
	generator := report.NewGenerator(llm.NewTransport(provider, cfg.Model, nil, logger), cfg.RequestTimeout)
	registry, err := newRegistry(generator, memoryStore)
	if err != nil {
		return err
	}
	transport := llm.NewTransport(provider, cfg.Model, registry.Definitions(), logger)

	systemPrompt, err := loadSystemPrompt(cfg.Paths.SystemPrompt)
	if err != nil {
		return err
	}
	budget := tokenBudget(cfg)
	store := llmcontext.NewStore(newTokenCounter(cfg.Context.Encoding, logger), budget, logger)
	store.Append(llm.SystemMessage(systemPrompt))

	color := term.IsTerminal(int(os.Stdout.Fd()))
	console := newConsole(os.Stdin, os.Stdout, color, func(path string) (document.Document, error) {
		return document.Export(memoryStore, path)
	})

	systemClock := clock.Real()
	sinks := agent.MultiSink{console}
	var sessionLog *agent.SessionLog
	if cfg.Paths.SessionLog != "" {
		sessionLog, err = agent.OpenSessionLog(cfg.Paths.SessionLog, sessionID, systemClock)
		if err != nil {
			return err
		}
		defer sessionLog.Close()
		sinks = append(sinks, sessionLog)
	}

	policy, err := agent.ParseToolCallPolicy(cfg.Loop.ToolCallPolicy)
	if err != nil {
		return err
	}
	loop, err := agent.NewLoop(agent.Config{
		Transport:      transport,
		Store:          store,
		Tools:          registry,
		MaxToolRounds:  cfg.Loop.MaxToolRounds,
		Policy:         policy,
		Streaming:      cfg.Streaming,
		OnDelta:        console.delta,
		EnableThinking: cfg.EnableThinking,
		Events:         sinks,
		Clock:          systemClock,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	logger.Info("docagent starting",
		"model", cfg.Model,
		"endpoint", cfg.Endpoint,
		"tools", len(registry.Names()),
		"budget", budget,
		"memory", memoryStore.Path(),
	)
	if sessionLog != nil {
		writeSystemEvent(sessionLog, systemClock, logger, "init",
			fmt.Sprintf("model %s, %d tools, token budget %d", cfg.Model, len(registry.Names()), budget))
	}

	runErr := console.Run(ctx, loop)

	if sessionLog != nil {
		summary := sessionLog.Summary()
		writeSystemEvent(sessionLog, systemClock, logger, "shutdown",
			fmt.Sprintf("%d turns, %d tool calls, %d compressions", loop.Turns(), summary.ToolCallCount, summary.CompressedCount))
	}
	return runErr
}

// writeSystemEvent records a session-level notice in the session log
// only; the console has nothing to show for it.
func writeSystemEvent(sink agent.EventSink, c clock.Clock, logger *slog.Logger, subtype, message string) {
	err := sink.Write(agent.Event{
		Timestamp: c.Now(),
		Type:      agent.EventTypeSystem,
		System:    &agent.SystemEvent{Subtype: subtype, Message: message},
	})
	if err != nil {
		logger.Warn("writing session event failed", "subtype", subtype, "error", err)
	}
}

// loadConfig loads the file named by --config, else the file named by
// DOCAGENT_CONFIG, else the defaults.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	if os.Getenv(config.ConfigEnv) != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// flags holds the command line. Values only override the configuration
// when the flag is given.
type flags struct {
	set *pflag.FlagSet

	configPath  string
	showHelp    bool
	showVersion bool

	endpoint       string
	model          string
	streaming      bool
	thinking       bool
	maxToolRounds  int
	toolCallPolicy string
	memoryPath     string
	sessionLogPath string
	systemPrompt   string
	logLevel       string
	logFormat      string
}

func newFlags() *flags {
	f := &flags{set: pflag.NewFlagSet("docagent", pflag.ContinueOnError)}
	set := f.set
	set.StringVar(&f.configPath, "config", "", "path to the YAML configuration file (default: $DOCAGENT_CONFIG)")
	set.StringVar(&f.endpoint, "endpoint", "", "chat completions endpoint URL")
	set.StringVar(&f.model, "model", "", "model identifier")
	set.BoolVar(&f.streaming, "stream", true, "stream responses as they are generated")
	set.BoolVar(&f.thinking, "thinking", true, "enable model reasoning in the chat template")
	set.IntVar(&f.maxToolRounds, "max-tool-rounds", 0, "tool-call rounds allowed per turn (negative: unbounded)")
	set.StringVar(&f.toolCallPolicy, "tool-call-policy", "", "tool calls run per response: first or all")
	set.StringVar(&f.memoryPath, "memory", "", "memory document path")
	set.StringVar(&f.sessionLogPath, "session-log", "", "JSONL session log path (\"\" in the config disables it)")
	set.StringVar(&f.systemPrompt, "system-prompt", "", "file replacing the built-in system prompt")
	set.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	set.StringVar(&f.logFormat, "log-format", "", "log format: text or json (default: text on a terminal)")
	set.BoolVarP(&f.showHelp, "help", "h", false, "show help")
	set.BoolVar(&f.showVersion, "version", false, "print version information")
	return f
}

// apply copies the flags that were given into cfg.
func (f *flags) apply(cfg *config.Config) {
	changed := f.set.Changed
	if changed("endpoint") {
		cfg.Endpoint = f.endpoint
	}
	if changed("model") {
		cfg.Model = f.model
	}
	if changed("stream") {
		cfg.Streaming = f.streaming
	}
	if changed("thinking") {
		cfg.EnableThinking = f.thinking
	}
	if changed("max-tool-rounds") {
		cfg.Loop.MaxToolRounds = f.maxToolRounds
	}
	if changed("tool-call-policy") {
		cfg.Loop.ToolCallPolicy = f.toolCallPolicy
	}
	if changed("memory") {
		cfg.Paths.Memory = f.memoryPath
	}
	if changed("session-log") {
		cfg.Paths.SessionLog = f.sessionLogPath
	}
	if changed("system-prompt") {
		cfg.Paths.SystemPrompt = f.systemPrompt
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `docagent: interactive report-writing assistant.

Talks to an OpenAI-compatible chat completions endpoint and lets the
model use report templates, a knowledge source and a persistent memory
to write a document chapter by chapter.

Usage:
  docagent [flags]

Examples:
  # Run against a local vLLM server with defaults
  docagent

  # Use a config file and a different model
  docagent --config ~/.config/docagent.yaml --model Qwen/Qwen3-32B

  # Single-shot responses, every tool call of a response executed
  docagent --stream=false --tool-call-policy all

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
