// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

// Template is a report outline with optional per-chapter content
// templates.
type Template struct {
	Name     string
	Chapters []string
	Nodes    []NodeTemplate
}

// NodeTemplate is the content template for one chapter. Content is
// either literal guidance ("filled in by the user") or a call
// expression; see the package documentation.
type NodeTemplate struct {
	NodeName        string          `json:"node_name"`
	ContentTemplate ContentTemplate `json:"content_template"`
}

// ContentTemplate holds the template text.
type ContentTemplate struct {
	Content string `json:"content"`
}

// DefaultTemplates is the built-in template catalog.
var DefaultTemplates = []Template{
	{
		Name: "Project Proposal Report",
		Chapters: []string{
			"Background",
			"Goals and Scope",
			"Market and User Analysis",
			"Technical Approach",
			"Risk Assessment",
			"Budget and Schedule",
		},
		Nodes: []NodeTemplate{
			{
				NodeName:        "Background",
				ContentTemplate: ContentTemplate{Content: "Call_GetKnowledgeTool({CurrentProjectID},'Background')"},
			},
			{
				NodeName:        "Risk Assessment",
				ContentTemplate: ContentTemplate{Content: "Call_GetAIGenerateTool({Call_GetKnowledgeTool({CurrentProjectID},'Risk Items')},{Prompt})"},
			},
			{
				NodeName:        "Technical Approach",
				ContentTemplate: ContentTemplate{Content: "Filled in by the user"},
			},
		},
	},
	{
		Name: "Market Analysis Report",
		Chapters: []string{
			"Background",
			"Overview",
			"Target Customer Analysis",
			"Competitive Landscape",
			"SWOT Analysis",
			"Market Trend Forecast",
		},
	},
	{
		Name: "Annual Summary Report",
		Chapters: []string{
			"Overview",
			"Annual Performance Review",
			"Key Project Retrospective",
			"Team Building and Growth",
			"Plans for Next Year",
		},
	},
}

// Catalog is a set of templates looked up by name.
type Catalog struct {
	templates []Template
}

// NewCatalog creates a catalog over templates. Nil means
// DefaultTemplates.
func NewCatalog(templates []Template) *Catalog {
	if templates == nil {
		templates = DefaultTemplates
	}
	return &Catalog{templates: templates}
}

// Names returns the template names in catalog order.
func (catalog *Catalog) Names() []string {
	names := make([]string, len(catalog.templates))
	for i, template := range catalog.templates {
		names[i] = template.Name
	}
	return names
}

// Lookup returns the template called name.
func (catalog *Catalog) Lookup(name string) (Template, bool) {
	for _, template := range catalog.templates {
		if template.Name == name {
			return template, true
		}
	}
	return Template{}, false
}
