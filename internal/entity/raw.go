package entity

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawExtractionRecord is the untyped invoice object produced by the upstream
// extraction step. Every field is optional and may hold a string, a number or
// null; use the accessors instead of indexing the map directly.
type RawExtractionRecord map[string]any

// RawLineItem is one element of RawExtractionRecord["items"].
type RawLineItem map[string]any

// Value returns the first non-nil value stored under keys.
func (r RawExtractionRecord) Value(keys ...string) any { return firstValue(r, keys) }

// Str returns the first non-blank textual value stored under keys.
func (r RawExtractionRecord) Str(keys ...string) *string { return firstStr(r, keys) }

// Items returns the line items. A missing or non-array "items" yields nil;
// elements that are not objects are skipped.
func (r RawExtractionRecord) Items() []RawLineItem {
	arr, ok := r["items"].([]any)
	if !ok {
		return nil
	}
	out := make([]RawLineItem, 0, len(arr))
	for _, el := range arr {
		switch m := el.(type) {
		case map[string]any:
			out = append(out, RawLineItem(m))
		case RawLineItem:
			out = append(out, m)
		}
	}
	return out
}

// Value returns the first non-nil value stored under keys.
func (r RawLineItem) Value(keys ...string) any { return firstValue(r, keys) }

// Str returns the first non-blank textual value stored under keys.
func (r RawLineItem) Str(keys ...string) *string { return firstStr(r, keys) }

func firstValue(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstStr(m map[string]any, keys []string) *string {
	for _, k := range keys {
		if s, ok := Text(m[k]); ok {
			return &s
		}
	}
	return nil
}

// Text renders a scalar JSON value as trimmed text. It reports false for nil,
// blank strings, objects and arrays.
func Text(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case int32:
		s = strconv.FormatInt(int64(t), 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return "", false
	}
	return s, true
}
