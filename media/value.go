// Package media turns loosely-typed listing fields into display data:
// deduplicated feature lists, {url, alt} galleries, and galleries discovered
// by listing sibling objects in public object storage.
//
// Nothing in this package returns an error. Malformed input and failed
// storage calls are reported through a WarningFunc and treated as "no data",
// so callers always receive a well-formed, possibly empty or default, result.
package media

import (
	"encoding/json"
	"strings"

	"property-media/models"
)

// maxDepth bounds recursion into nested arrays, objects and JSON strings.
const maxDepth = 64

// WarningFunc receives errors that were recovered locally. context names the
// step that failed.
type WarningFunc func(context string, err error)

func noWarning(string, error) {}

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindScalar Kind = iota
	KindString
	KindArray
	KindObject
)

// Value is one decoded field value. It is implemented by Scalar, StringValue,
// ArrayValue and ObjectValue only.
type Value interface {
	Kind() Kind
}

// Scalar holds nil, numbers, booleans and any other leaf without text.
type Scalar struct{ V any }

// StringValue holds raw text, which may itself be delimited or JSON-encoded.
type StringValue string

// ArrayValue holds an ordered list of undecoded elements.
type ArrayValue []any

// ObjectValue holds a keyed record of undecoded fields.
type ObjectValue map[string]any

func (Scalar) Kind() Kind      { return KindScalar }
func (StringValue) Kind() Kind { return KindString }
func (ArrayValue) Kind() Kind  { return KindArray }
func (ObjectValue) Kind() Kind { return KindObject }

// ValueOf classifies v one level deep. Elements of arrays and objects are
// classified lazily as the normalisers walk them.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Scalar{}
	case Value:
		return t
	case string:
		return StringValue(t)
	case []any:
		return ArrayValue(t)
	case []string:
		out := make(ArrayValue, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make(ArrayValue, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	case []models.GalleryImage:
		out := make(ArrayValue, len(t))
		for i, img := range t {
			out[i] = imageObject(img)
		}
		return out
	case models.GalleryImage:
		return imageObject(t)
	case map[string]any:
		return ObjectValue(t)
	case models.Record:
		return ObjectValue(t)
	default:
		return Scalar{V: v}
	}
}

func imageObject(img models.GalleryImage) ObjectValue {
	return ObjectValue{"url": img.URL, "alt": img.Alt}
}

// looksLikeJSON reports whether s is wrapped in [] or {}.
func looksLikeJSON(s string) bool {
	return (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"))
}

func parseJSON(s string) (any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// truthy mirrors how the dashboard pages test optional fields: empty
// strings, zero numbers, false and nil count as absent; any container counts
// as present even when empty.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case json.Number:
		return t != "" && t != "0"
	default:
		return true
	}
}

// firstTruthy returns the value of the first key in keys holding a truthy
// value.
func firstTruthy(obj ObjectValue, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok && truthy(v) {
			return v, true
		}
	}
	return nil, false
}

// firstString returns the first key in keys holding a non-empty string after
// trimming.
func firstString(obj ObjectValue, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}
	return "", false
}
