// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import "encoding/json"

// Schema is the subset of JSON Schema used for tool argument objects.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one argument.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ObjectSchema returns an object schema with the given properties and
// required names. properties may be nil for a tool without arguments.
func ObjectSchema(properties map[string]Property, required ...string) Schema {
	if properties == nil {
		properties = map[string]Property{}
	}
	return Schema{Type: "object", Properties: properties, Required: required}
}

// JSON returns the schema serialized. Marshaling a Schema cannot fail.
func (schema Schema) JSON() json.RawMessage {
	data, err := json.Marshal(schema)
	if err != nil {
		panic("tool: marshaling schema: " + err.Error())
	}
	return data
}
