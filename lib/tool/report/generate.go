// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bureau-foundation/docagent/lib/llm"
	"github.com/bureau-foundation/docagent/lib/tool"
)

// Completer requests one completion. *llm.Transport implements it.
type Completer interface {
	Complete(ctx context.Context, history []llm.Message, options llm.CallOptions) llm.Message
}

// Generator produces chapter text from reference material with a
// separate, single-shot completion that does not enter the
// conversation history.
type Generator struct {
	completer Completer
	timeout   time.Duration
}

// NewGenerator creates a Generator. A non-positive timeout means no
// deadline beyond the completer's own.
func NewGenerator(completer Completer, timeout time.Duration) *Generator {
	return &Generator{completer: completer, timeout: timeout}
}

// thinkEnd closes the reasoning block Qwen3 models emit before the
// answer.
const thinkEnd = "</think>"

// Generate answers prompt using reference as context. Thinking is
// disabled and any reasoning block is stripped from the reply.
func (generator *Generator) Generate(reference, prompt string) string {
	ctx := context.Background()
	if generator.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, generator.timeout)
		defer cancel()
	}

	reply := generator.completer.Complete(ctx, []llm.Message{
		llm.SystemMessage("Answer the user's request using the following reference material: [" + reference + "]"),
		llm.UserMessage(prompt + " /nothink"),
	}, llm.CallOptions{})

	text := reply.Text()
	if index := strings.Index(text, thinkEnd); index >= 0 {
		text = text[index+len(thinkEnd):]
	}
	return strings.TrimSpace(text)
}

// GetAIGenerate asks the model to write content from reference
// material.
type GetAIGenerate struct {
	generator *Generator
}

func (*GetAIGenerate) Name() string { return "get_ai_generate" }

func (*GetAIGenerate) Description() string {
	return "Use when the user wants AI-generated content based on reference material. " +
		"Ask the user for their requirements first and pass them as prompt."
}

func (*GetAIGenerate) Parameters() json.RawMessage {
	return tool.ObjectSchema(map[string]tool.Property{
		"context": {Type: "string", Description: "Reference material for the AI"},
		"prompt":  {Type: "string", Description: "The user's instructions"},
	}, "prompt").JSON()
}

func (generateTool *GetAIGenerate) Execute(raw string) string {
	arguments, err := tool.ParseArguments(raw)
	if err != nil {
		return tool.Failure(err)
	}
	values, err := arguments.Require("context", "prompt")
	if err != nil {
		return tool.Failure(err)
	}
	if generateTool.generator == nil {
		return ""
	}
	return generateTool.generator.Generate(values[0], values[1])
}
