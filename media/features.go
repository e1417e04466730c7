package media

import (
	"fmt"
	"strings"

	"property-media/models"
)

// FeatureKeys are the record keys that may hold a feature list, in probe
// order.
var FeatureKeys = []string{
	"features",
	"feature_list",
	"featureHighlights",
	"feature_highlights",
	"highlights",
	"amenities",
	"amenityHighlights",
	"key_features",
	"selling_points",
	"tags",
	"points",
	"details",
}

// FeatureValueKeys are probed, in order, on an object that carries no nested
// feature list; the first non-empty string becomes a single feature.
var FeatureValueKeys = []string{"label", "title", "name", "description", "value", "text"}

// featureDelimiters splits plain feature strings: bullet, comma, pipe, newline.
const featureDelimiters = "•,|\n"

// Normalizer shapes feature and gallery fields. The zero value is not usable;
// build one with NewNormalizer.
type Normalizer struct {
	warn WarningFunc
}

// NewNormalizer returns a Normalizer reporting recovered errors to warn.
// A nil warn discards them.
func NewNormalizer(warn WarningFunc) *Normalizer {
	if warn == nil {
		warn = noWarning
	}
	return &Normalizer{warn: warn}
}

var defaultNormalizer = NewNormalizer(nil)

// ExtractFeatures is ExtractFirstMatch with warnings discarded.
func ExtractFeatures(record models.Record) []string {
	return defaultNormalizer.ExtractFirstMatch(record)
}

// ExtractFirstMatch is Normalizer.ExtractFirstMatch with warnings discarded.
func ExtractFirstMatch(record models.Record) []string {
	return defaultNormalizer.ExtractFirstMatch(record)
}

// ExtractAllMatches is Normalizer.ExtractAllMatches with warnings discarded.
func ExtractAllMatches(record models.Record) []string {
	return defaultNormalizer.ExtractAllMatches(record)
}

// NormalizeFeatures is Normalizer.Features with warnings discarded.
func NormalizeFeatures(v any) []string {
	return defaultNormalizer.Features(v)
}

// ExtractFirstMatch returns the features of the first key in FeatureKeys
// whose value normalises to a non-empty list. Later keys are ignored.
func (n *Normalizer) ExtractFirstMatch(record models.Record) []string {
	for _, key := range FeatureKeys {
		v, ok := record[key]
		if !ok {
			continue
		}
		if features := n.features(ValueOf(v), 0); len(features) > 0 {
			return dedupe(features)
		}
	}
	return []string{}
}

// ExtractAllMatches concatenates the features of every key in FeatureKeys and
// removes duplicates, keeping the first occurrence.
func (n *Normalizer) ExtractAllMatches(record models.Record) []string {
	var collected []string
	for _, key := range FeatureKeys {
		if v, ok := record[key]; ok {
			collected = append(collected, n.features(ValueOf(v), 0)...)
		}
	}
	return dedupe(collected)
}

// Features normalises a single field value into trimmed, non-empty strings.
// Duplicates are kept; the Extract methods remove them.
func (n *Normalizer) Features(v any) []string {
	out := n.features(ValueOf(v), 0)
	if out == nil {
		return []string{}
	}
	return out
}

func (n *Normalizer) features(v Value, depth int) []string {
	if depth > maxDepth {
		n.warn("normalize features", fmt.Errorf("media: nesting deeper than %d levels", maxDepth))
		return nil
	}

	switch t := v.(type) {
	case ArrayValue:
		var out []string
		for _, item := range t {
			out = append(out, n.features(ValueOf(item), depth+1)...)
		}
		return out

	case StringValue:
		s := strings.TrimSpace(string(t))
		if s == "" {
			return nil
		}
		if looksLikeJSON(s) {
			parsed, err := parseJSON(s)
			if err == nil {
				return n.features(ValueOf(parsed), depth+1)
			}
			n.warn("parse feature string", err)
		}
		return splitFeatures(s)

	case ObjectValue:
		for _, key := range FeatureKeys {
			nested, ok := t[key]
			if !ok {
				continue
			}
			if out := n.features(ValueOf(nested), depth+1); len(out) > 0 {
				return out
			}
		}
		if s, ok := firstString(t, FeatureValueKeys...); ok {
			return []string{s}
		}
	}

	return nil
}

// splitFeatures splits s on any feature delimiter and drops empty pieces.
// A string that failed to parse as JSON keeps its brackets on the outer
// tokens.
func splitFeatures(s string) []string {
	pieces := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(featureDelimiters, r)
	})
	out := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if piece = strings.TrimSpace(piece); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// dedupe removes repeated strings, keeping the first occurrence. The result
// is never nil.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
