// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package structured extracts JSON payloads from raw model output.
//
// Language models return JSON in several shapes: bare, wrapped in a
// ```json fence, wrapped in an unlabeled fence, or not at all. Parse
// tolerates all of them and never returns an error; callers branch on
// the Kind of the returned Value and fall back to deterministic content
// when it is KindInvalid. Parse is a pure function, so identical input
// always yields identical output.
package structured

import (
	"encoding/json"
	"strings"
)

// Kind discriminates the top-level shape of a parsed value.
type Kind int

const (
	// KindInvalid means the text could not be decoded as a JSON object
	// or array. The zero Value has this kind.
	KindInvalid Kind = iota

	// KindObject means the top-level value is a JSON object.
	KindObject

	// KindArray means the top-level value is a JSON array.
	KindArray
)

// Value is the tagged union returned by Parse.
type Value struct {
	kind Kind
	obj  map[string]any
	arr  []any
}

// Kind returns the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// Object returns the decoded object and whether the value is one.
func (v Value) Object() (map[string]any, bool) {
	return v.obj, v.kind == KindObject
}

// Array returns the decoded array and whether the value is one.
func (v Value) Array() ([]any, bool) {
	return v.arr, v.kind == KindArray
}

const (
	jsonFence = "```json"
	bareFence = "```"
)

// Parse extracts and decodes a JSON payload from raw model text.
//
// Extraction rule: if a ```json marker is present, the text between the
// first such marker and the next closing fence is used; otherwise if any
// fence markers are present, the text between the first pair is used;
// otherwise the text is decoded verbatim. Decode failures and scalar
// top-level values yield KindInvalid.
func Parse(raw string) Value {
	text := extract(strings.TrimSpace(raw))

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return Value{}
	}

	switch v := decoded.(type) {
	case map[string]any:
		return Value{kind: KindObject, obj: v}
	case []any:
		return Value{kind: KindArray, arr: v}
	default:
		return Value{}
	}
}

// extract strips a fenced block around the payload, if any.
func extract(text string) string {
	if idx := strings.Index(text, jsonFence); idx >= 0 {
		text = text[idx+len(jsonFence):]
		if end := strings.Index(text, bareFence); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	if idx := strings.Index(text, bareFence); idx >= 0 {
		text = text[idx+len(bareFence):]
		if end := strings.Index(text, bareFence); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	return text
}

// AsString coerces a decoded JSON value to a trimmed string. Lists are
// joined with a Chinese enumeration comma, matching the metadata
// stringification used throughout the stages. Nil and unsupported values
// yield an empty string.
func AsString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := AsString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "、")
	default:
		return ""
	}
}

// AsStringSlice coerces a decoded JSON value to a slice of trimmed,
// non-empty strings.
func AsStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := AsString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// AsStringMap coerces a decoded JSON object to a string-to-string map,
// dropping nil values.
func AsStringMap(v any) map[string]string {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(obj))
	for key, val := range obj {
		if val == nil {
			continue
		}
		out[key] = AsString(val)
	}
	return out
}
