// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names read by this package.
const (
	// ConfigEnv names the configuration file for [Load].
	ConfigEnv = "DOCAGENT_CONFIG"

	// DefaultAPIKeyEnv is where the provider API key is read from
	// unless api_key_env says otherwise.
	DefaultAPIKeyEnv = "DOCAGENT_API_KEY"
)

// Tool call policy values accepted in loop.tool_call_policy.
var toolCallPolicies = []string{"first", "all"}

// Log levels accepted in log.level.
var logLevels = []string{"debug", "info", "warn", "error"}

// Config is the configuration of the docagent console.
type Config struct {
	// Endpoint is the URL of an OpenAI-compatible chat completions
	// endpoint, e.g. a vLLM server.
	Endpoint string `yaml:"endpoint"`

	// Model is the model identifier sent with every request.
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the bearer
	// token. The key itself never appears in the file. An unset or
	// empty variable sends no Authorization header.
	APIKeyEnv string `yaml:"api_key_env"`

	// Streaming requests streamed completions and prints text as it
	// arrives.
	Streaming bool `yaml:"streaming"`

	// EnableThinking is forwarded to the chat template. Qwen3 emits
	// reasoning before the answer when it is set.
	EnableThinking bool `yaml:"enable_thinking"`

	// RequestTimeout bounds one completion request, including a
	// streamed body. Zero means no timeout.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Context configures history compression.
	Context ContextConfig `yaml:"context"`

	// Loop configures the conversation loop.
	Loop LoopConfig `yaml:"loop"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`
}

// ContextConfig configures the token budget of the history.
type ContextConfig struct {
	// Window is the model context window in tokens. Zero looks the
	// model up in the built-in registry.
	Window int `yaml:"window"`

	// Ratio is the fraction of Window the history may fill before
	// compression starts. Zero means 0.75.
	Ratio float64 `yaml:"ratio"`

	// Budget sets the token budget directly, ignoring Window and
	// Ratio. Zero derives it.
	Budget int `yaml:"budget"`

	// Encoding is the tiktoken encoding used to count tokens.
	Encoding string `yaml:"encoding"`
}

// LoopConfig configures the conversation loop.
type LoopConfig struct {
	// MaxToolRounds bounds tool-call rounds per user turn. Negative
	// means unbounded.
	MaxToolRounds int `yaml:"max_tool_rounds"`

	// ToolCallPolicy is "first" (run only the first call of a
	// multi-call response) or "all".
	ToolCallPolicy string `yaml:"tool_call_policy"`
}

// PathsConfig configures file locations. ${DOCAGENT_ROOT}, ${HOME} and
// ${VAR:-default} are expanded after loading.
type PathsConfig struct {
	// Root is the base directory for docagent data.
	Root string `yaml:"root"`

	// Memory is the JSON document behind the memory tools.
	Memory string `yaml:"memory"`

	// SessionLog is the JSONL event log. Empty disables it.
	SessionLog string `yaml:"session_log"`

	// SystemPrompt replaces the built-in system prompt. Empty uses the
	// built-in one.
	SystemPrompt string `yaml:"system_prompt"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn or error. The default is warn so that
	// log lines do not interleave with the conversation.
	Level string `yaml:"level"`

	// Format is "text", "json", or empty to pick text on a terminal
	// and JSON otherwise.
	Format string `yaml:"format"`
}

// Default returns the default configuration. A config file only needs
// to name the values it changes.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "docagent")

	return &Config{
		Endpoint:       "http://localhost:8000/v1/chat/completions",
		Model:          "vllm-qwen3-14b",
		APIKeyEnv:      DefaultAPIKeyEnv,
		Streaming:      true,
		EnableThinking: true,
		RequestTimeout: 10 * time.Minute,
		Context: ContextConfig{
			Ratio:    0.75,
			Encoding: "cl100k_base",
		},
		Loop: LoopConfig{
			MaxToolRounds:  25,
			ToolCallPolicy: "first",
		},
		Paths: PathsConfig{
			Root:       defaultRoot,
			Memory:     filepath.Join(defaultRoot, "memory.json"),
			SessionLog: filepath.Join(defaultRoot, "sessions.jsonl"),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load loads the file named by the DOCAGENT_CONFIG environment
// variable. It fails when the variable is unset; callers that can run
// on defaults check the variable first.
func Load() (*Config, error) {
	configPath := os.Getenv(ConfigEnv)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your docagent.yaml config file, or use --config flag", ConfigEnv)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from path over [Default]. Fields the
// file omits keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.ExpandVariables()

	return cfg, nil
}

// loadFile merges a single configuration file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// ExpandVariables expands ${VAR} and ${VAR:-default} patterns in the
// path fields. ${DOCAGENT_ROOT} refers to Paths.Root. LoadFile calls it;
// callers that set paths from flags call it again.
func (c *Config) ExpandVariables() {
	vars := map[string]string{
		"DOCAGENT_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["DOCAGENT_ROOT"] = c.Paths.Root

	c.Paths.Memory = expandVars(c.Paths.Memory, vars)
	c.Paths.SessionLog = expandVars(c.Paths.SessionLog, vars)
	c.Paths.SystemPrompt = expandVars(c.Paths.SystemPrompt, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, preferring
// vars over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// APIKey returns the value of the variable named by APIKeyEnv.
func (c *Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Endpoint == "" {
		errs = append(errs, errors.New("endpoint is required"))
	} else if parsed, err := url.Parse(c.Endpoint); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("endpoint %q is not an absolute URL", c.Endpoint))
	}

	if c.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}

	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout))
	}

	if c.Context.Window < 0 {
		errs = append(errs, fmt.Errorf("context.window must not be negative, got %d", c.Context.Window))
	}
	if c.Context.Ratio < 0 || c.Context.Ratio > 1 {
		errs = append(errs, fmt.Errorf("context.ratio must be within [0, 1], got %g", c.Context.Ratio))
	}
	if c.Context.Budget < 0 {
		errs = append(errs, fmt.Errorf("context.budget must not be negative, got %d", c.Context.Budget))
	}

	if !slices.Contains(toolCallPolicies, c.Loop.ToolCallPolicy) {
		errs = append(errs, fmt.Errorf("loop.tool_call_policy must be one of: %v", toolCallPolicies))
	}

	if c.Paths.Memory == "" {
		errs = append(errs, errors.New("paths.memory is required"))
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the root directory and the parent directories of
// the configured files.
func (c *Config) EnsurePaths() error {
	directories := []string{c.Paths.Root}
	for _, file := range []string{c.Paths.Memory, c.Paths.SessionLog} {
		if file != "" {
			directories = append(directories, filepath.Dir(file))
		}
	}

	for _, directory := range directories {
		if directory == "" {
			continue
		}
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", directory, err)
		}
	}

	return nil
}
