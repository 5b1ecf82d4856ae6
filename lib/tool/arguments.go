// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxUnwrapDepth bounds how many layers of string encoding ParseArguments
// peels off.
const maxUnwrapDepth = 4

// Arguments is a parsed tool argument object.
type Arguments struct {
	fields map[string]json.RawMessage
}

// ParseArguments parses raw argument text as a JSON object. Empty or
// whitespace text is an empty object. When the text is a JSON string
// whose value looks like an object, the string is decoded and parsed
// again; some models encode the argument object twice.
//
// Errors are meant to be rendered with [Failure] and returned to the
// model.
func ParseArguments(raw string) (Arguments, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Arguments{fields: map[string]json.RawMessage{}}, nil
	}

	for depth := 0; depth < maxUnwrapDepth && strings.HasPrefix(text, `"`); depth++ {
		var inner string
		if err := json.Unmarshal([]byte(text), &inner); err != nil {
			return Arguments{}, fmt.Errorf("failed to parse arguments: %v", err)
		}
		if !strings.Contains(inner, "{") {
			break
		}
		text = strings.TrimSpace(inner)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Arguments{}, fmt.Errorf("failed to parse arguments: %v", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return Arguments{fields: fields}, nil
}

// Has reports whether name is present, even as null.
func (arguments Arguments) Has(name string) bool {
	_, present := arguments.fields[name]
	return present
}

// String returns the named argument as text. Present reports whether
// the argument exists. A JSON string is returned decoded; null is "";
// any other JSON value is returned as its JSON text, so a model that
// sends a number or array where a string was asked for still gets a
// usable value.
func (arguments Arguments) String(name string) (value string, present bool) {
	raw, present := arguments.fields[name]
	if !present {
		return "", false
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return "", true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, true
	}
	return trimmed, true
}

// Require returns the named string arguments in order, or an error
// naming the first one that is missing.
func (arguments Arguments) Require(names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		value, present := arguments.String(name)
		if !present {
			return nil, fmt.Errorf("missing parameter '%s'", name)
		}
		values[i] = value
	}
	return values, nil
}

// Failure renders err as tool result text.
func Failure(err error) string {
	return "error: " + err.Error()
}
