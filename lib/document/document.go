// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"

	"github.com/bureau-foundation/docagent/lib/memory"
)

// DefaultTitle is used when no project is recorded.
const DefaultTitle = "Untitled Report"

// Source is the read side of the memory store. *memory.Store
// implements it.
type Source interface {
	Keys() []string
	Get(key string) (any, bool)
	Global(name string) string
}

// Chapter is one section of the report.
type Chapter struct {
	Name    string
	Content string
}

// Document is the assembled report.
type Document struct {
	Title    string
	Chapters []Chapter
}

var (
	contentPrefix = memory.CategoryDocumentContent + "."
	outlineKey    = memory.CategoryDocumentOutline + ".chapters"

	// numbering matches list markers in a plain-text outline: "1. ",
	// "2) ", "- ".
	numbering = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*])\s*`)
)

// Collect reads the report from source. Chapters named in the outline
// come first, in outline order; chapters with content but missing from
// the outline follow in name order. Outline entries without content
// are skipped.
func Collect(source Source) Document {
	contents := map[string]string{}

	// Chapters nested in the documentContent object, as a hand-edited
	// file may have them.
	if nested, found := source.Get(memory.CategoryDocumentContent); found {
		if entries, ok := nested.(map[string]any); ok {
			for name, value := range entries {
				contents[name] = valueText(value)
			}
		}
	}
	// Chapters written by set_memory as flat qualified keys.
	for _, key := range source.Keys() {
		if name, ok := strings.CutPrefix(key, contentPrefix); ok && name != "" {
			value, _ := source.Get(key)
			contents[name] = valueText(value)
		}
	}

	document := Document{Title: source.Global("currentProjectID")}
	if document.Title == "" {
		document.Title = DefaultTitle
	}

	placed := map[string]bool{}
	for _, name := range outlineOrder(source) {
		content, found := contents[name]
		if !found || placed[name] {
			continue
		}
		placed[name] = true
		document.Chapters = append(document.Chapters, Chapter{Name: name, Content: content})
	}

	var rest []string
	for name := range contents {
		if !placed[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	for _, name := range rest {
		document.Chapters = append(document.Chapters, Chapter{Name: name, Content: contents[name]})
	}
	return document
}

// outlineOrder returns the chapter names of the saved outline, read
// from the flat key or the nested outline object. The
// outline may be a JSON array of names, a JSON-encoded string holding
// one, or plain text with one (optionally numbered) name per line.
func outlineOrder(source Source) []string {
	value, found := source.Get(outlineKey)
	if !found {
		nested, ok := source.Get(memory.CategoryDocumentOutline)
		if !ok {
			return nil
		}
		outline, ok := nested.(map[string]any)
		if !ok {
			return nil
		}
		if value, found = outline["chapters"]; !found {
			return nil
		}
	}

	var text string
	switch outline := value.(type) {
	case []any:
		return nameList(outline)
	case string:
		text = outline
	default:
		return nil
	}

	var names []any
	if err := json.Unmarshal([]byte(text), &names); err == nil {
		return nameList(names)
	}

	var lines []string
	for line := range strings.Lines(text) {
		name := strings.TrimSpace(numbering.ReplaceAllString(line, ""))
		if name != "" {
			lines = append(lines, name)
		}
	}
	return lines
}

// nameList keeps the string entries of a decoded JSON array, and the
// "name" field of object entries.
func nameList(entries []any) []string {
	var names []string
	for _, entry := range entries {
		switch entry := entry.(type) {
		case string:
			names = append(names, entry)
		case map[string]any:
			if name, ok := entry["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// valueText renders a stored value as chapter text.
func valueText(value any) string {
	if text, ok := value.(string); ok {
		return text
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// Markdown renders the document with the title as a level-one heading
// and each chapter as a level-two heading.
func (document Document) Markdown() string {
	var builder strings.Builder
	builder.WriteString("# ")
	builder.WriteString(document.Title)
	builder.WriteString("\n")
	for _, chapter := range document.Chapters {
		builder.WriteString("\n## ")
		builder.WriteString(chapter.Name)
		builder.WriteString("\n\n")
		builder.WriteString(strings.TrimSpace(chapter.Content))
		builder.WriteString("\n")
	}
	return builder.String()
}
