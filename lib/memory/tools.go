// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bureau-foundation/docagent/lib/tool"
)

// Tools returns the memory tools bound to store.
func Tools(store *Store) []tool.Tool {
	return []tool.Tool{
		&SetMemory{store: store},
		&GetMemory{store: store},
		&ListMemory{store: store},
		&DeleteMemory{store: store},
	}
}

func categoryProperty(description string) tool.Property {
	return tool.Property{Type: "string", Description: description, Enum: Categories}
}

// qualifiedKey joins category and key the way entries are stored.
func qualifiedKey(category, key string) string {
	if category == "" {
		return key
	}
	return category + "." + key
}

// SetMemory stores a value.
type SetMemory struct {
	store *Store
}

func (*SetMemory) Name() string { return "set_memory" }

func (*SetMemory) Description() string {
	return "Set or update a memory entry: global variables, outline information, progress state and other data."
}

func (*SetMemory) Parameters() json.RawMessage {
	return tool.ObjectSchema(map[string]tool.Property{
		"key":      {Type: "string", Description: "Memory key, e.g. 'currentProjectID' or 'chapters'"},
		"value":    {Type: "string", Description: "Value to store"},
		"category": categoryProperty("Memory category"),
	}, "key", "value", "category").JSON()
}

func (setTool *SetMemory) Execute(raw string) string {
	arguments, err := tool.ParseArguments(raw)
	if err != nil {
		return tool.Failure(err)
	}
	values, err := arguments.Require("key", "value", "category")
	if err != nil {
		return tool.Failure(err)
	}
	key, value, category := values[0], values[1], values[2]

	switch category {
	case CategoryGlobalVariables:
		if err := setTool.store.SetGlobal(key, value); err != nil {
			return tool.Failure(err)
		}
		return fmt.Sprintf("Set global variable %s = %s", key, value)
	case CategoryCustomMemories:
		if err := setTool.store.Set(qualifiedKey(category, key), value); err != nil {
			return tool.Failure(err)
		}
		return fmt.Sprintf("Set custom memory %s = %s", key, value)
	default:
		qualified := qualifiedKey(category, key)
		if err := setTool.store.Set(qualified, value); err != nil {
			return tool.Failure(err)
		}
		return fmt.Sprintf("Set memory %s = %s", qualified, value)
	}
}

// GetMemory reads a value.
type GetMemory struct {
	store *Store
}

func (*GetMemory) Name() string { return "get_memory" }

func (*GetMemory) Description() string {
	return "Look up a memory entry by key: global variables, outline information, progress state and so on."
}

func (*GetMemory) Parameters() json.RawMessage {
	return tool.ObjectSchema(map[string]tool.Property{
		"key":      {Type: "string", Description: "Memory key to look up"},
		"category": categoryProperty("Memory category; omit to look the key up as given"),
	}, "key").JSON()
}

func (getTool *GetMemory) Execute(raw string) string {
	arguments, err := tool.ParseArguments(raw)
	if err != nil {
		return tool.Failure(err)
	}
	values, err := arguments.Require("key")
	if err != nil {
		return tool.Failure(err)
	}
	key := values[0]
	category, _ := arguments.String("category")

	if category == CategoryGlobalVariables {
		value := getTool.store.Global(key)
		if value == "" {
			return "Global variable not found: " + key
		}
		return fmt.Sprintf("%s = %s", key, value)
	}

	qualified := qualifiedKey(category, key)
	value, found := getTool.store.Get(qualified)
	if !found {
		return "Memory not found: " + qualified
	}
	return encodeValue(value)
}

// ListMemory lists stored keys.
type ListMemory struct {
	store *Store
}

func (*ListMemory) Name() string { return "list_memory" }

func (*ListMemory) Description() string {
	return "List every memory key, optionally filtered by category."
}

func (*ListMemory) Parameters() json.RawMessage {
	return tool.ObjectSchema(map[string]tool.Property{
		"category": categoryProperty("Category to list; omit to list everything"),
	}).JSON()
}

func (listTool *ListMemory) Execute(raw string) string {
	arguments, err := tool.ParseArguments(raw)
	if err != nil {
		return tool.Failure(err)
	}
	category, _ := arguments.String("category")

	keys := listTool.store.Keys()
	if category != "" {
		prefix := category + "."
		filtered := keys[:0]
		for _, key := range keys {
			if strings.HasPrefix(key, prefix) {
				filtered = append(filtered, key)
			}
		}
		keys = filtered
	}
	return encodeValue(struct {
		Keys  []string `json:"keys"`
		Total int      `json:"total"`
	}{Keys: keys, Total: len(keys)})
}

// DeleteMemory removes a value.
type DeleteMemory struct {
	store *Store
}

func (*DeleteMemory) Name() string { return "delete_memory" }

func (*DeleteMemory) Description() string { return "Delete a memory entry." }

func (*DeleteMemory) Parameters() json.RawMessage {
	return tool.ObjectSchema(map[string]tool.Property{
		"key":      {Type: "string", Description: "Memory key to delete"},
		"category": categoryProperty("Memory category"),
	}, "key").JSON()
}

func (deleteTool *DeleteMemory) Execute(raw string) string {
	arguments, err := tool.ParseArguments(raw)
	if err != nil {
		return tool.Failure(err)
	}
	values, err := arguments.Require("key")
	if err != nil {
		return tool.Failure(err)
	}
	category, _ := arguments.String("category")
	qualified := qualifiedKey(category, values[0])

	deleted, err := deleteTool.store.Delete(qualified)
	if err != nil {
		return tool.Failure(err)
	}
	if !deleted {
		return "Memory not found for deletion: " + qualified
	}
	return "Deleted memory: " + qualified
}

// encodeValue renders a stored value as JSON without HTML escaping.
func encodeValue(value any) string {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return tool.Failure(err)
	}
	return strings.TrimSuffix(buffer.String(), "\n")
}
