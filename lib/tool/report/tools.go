// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bureau-foundation/docagent/lib/tool"
)

// Tools returns the report tools. A nil catalog means the default
// templates and a nil knowledge source means [PlaceholderKnowledge].
// generator may be nil, in which case get_ai_generate returns empty
// text.
func Tools(catalog *Catalog, knowledge KnowledgeSource, generator *Generator) []tool.Tool {
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	if knowledge == nil {
		knowledge = PlaceholderKnowledge{}
	}
	return []tool.Tool{
		&ListOutlineTemplates{catalog: catalog},
		&GetOutlineDetails{catalog: catalog},
		&ListNodeTemplates{catalog: catalog},
		&GetKnowledge{source: knowledge},
		&GetAIGenerate{generator: generator},
	}
}

// marshalText encodes value as JSON without HTML escaping, so template
// text reaches the model verbatim.
func marshalText(value any) string {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return tool.Failure(err)
	}
	return strings.TrimSuffix(buffer.String(), "\n")
}

var templateNameSchema = tool.ObjectSchema(map[string]tool.Property{
	"template_name": {
		Type:        "string",
		Description: "Full name of the template the user chose, e.g. 'Project Proposal Report'",
	},
}, "template_name").JSON()

// ListOutlineTemplates lists the available outline templates.
type ListOutlineTemplates struct {
	catalog *Catalog
}

func (*ListOutlineTemplates) Name() string { return "list_outline_templates" }

func (*ListOutlineTemplates) Description() string {
	return "Use when the user wants to find available outline templates. Lists every outline template."
}

func (*ListOutlineTemplates) Parameters() json.RawMessage { return tool.ObjectSchema(nil).JSON() }

func (listTool *ListOutlineTemplates) Execute(string) string {
	return marshalText(listTool.catalog.Names())
}

// GetOutlineDetails returns the chapter structure of one template.
type GetOutlineDetails struct {
	catalog *Catalog
}

func (*GetOutlineDetails) Name() string { return "get_outline_details" }

func (*GetOutlineDetails) Description() string {
	return "Returns the chapter structure of the outline template the user named."
}

func (*GetOutlineDetails) Parameters() json.RawMessage { return templateNameSchema }

func (detailsTool *GetOutlineDetails) Execute(raw string) string {
	arguments, err := tool.ParseArguments(raw)
	if err != nil {
		return tool.Failure(err)
	}
	values, err := arguments.Require("template_name")
	if err != nil {
		return tool.Failure(err)
	}

	template, found := detailsTool.catalog.Lookup(values[0])
	if !found {
		return fmt.Sprintf("error: no template named '%s'.", values[0])
	}
	lines := make([]string, len(template.Chapters))
	for i, chapter := range template.Chapters {
		lines[i] = fmt.Sprintf("%d. %s", i+1, chapter)
	}
	return strings.Join(lines, "\n")
}

// ListNodeTemplates lists the chapter content templates of one
// template.
type ListNodeTemplates struct {
	catalog *Catalog
}

func (*ListNodeTemplates) Name() string { return "list_node_templates" }

func (*ListNodeTemplates) Description() string {
	return "Use when the user wants to write the content of a chapter of some document type. " +
		"Lists every content template available for that type."
}

func (*ListNodeTemplates) Parameters() json.RawMessage { return templateNameSchema }

func (nodesTool *ListNodeTemplates) Execute(raw string) string {
	arguments, err := tool.ParseArguments(raw)
	if err != nil {
		return tool.Failure(err)
	}
	values, err := arguments.Require("template_name")
	if err != nil {
		return tool.Failure(err)
	}

	template, found := nodesTool.catalog.Lookup(values[0])
	if !found || len(template.Nodes) == 0 {
		return fmt.Sprintf("error: no template named '%s'.", values[0])
	}
	return marshalText(template.Nodes)
}

// KnowledgeSource returns stored knowledge for a project chapter.
type KnowledgeSource interface {
	Knowledge(projectID, chapterName string) string
}

// PlaceholderKnowledge answers every lookup with a sentence naming the
// project and chapter. It stands in until a knowledge base is wired.
type PlaceholderKnowledge struct{}

func (PlaceholderKnowledge) Knowledge(projectID, chapterName string) string {
	return fmt.Sprintf("This is the content of chapter [%s] of project [%s].", chapterName, projectID)
}

// GetKnowledge looks up knowledge-base content for a project chapter.
type GetKnowledge struct {
	source KnowledgeSource
}

func (*GetKnowledge) Name() string { return "get_knowledge" }

func (*GetKnowledge) Description() string {
	return "Use when the user wants the knowledge-base content of a chapter of a project. " +
		"Confirm the arguments with the user before calling."
}

func (*GetKnowledge) Parameters() json.RawMessage {
	return tool.ObjectSchema(map[string]tool.Property{
		"project_id":   {Type: "string", Description: "ID of the project the user named"},
		"chapter_name": {Type: "string", Description: "Name of the chapter the user named"},
	}, "project_id", "chapter_name").JSON()
}

func (knowledgeTool *GetKnowledge) Execute(raw string) string {
	arguments, err := tool.ParseArguments(raw)
	if err != nil {
		return tool.Failure(err)
	}
	values, err := arguments.Require("project_id", "chapter_name")
	if err != nil {
		return tool.Failure(err)
	}
	return knowledgeTool.source.Knowledge(values[0], values[1])
}
