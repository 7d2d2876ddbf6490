package agents

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// stringField returns the named adapter output as a trimmed string.
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// stringsField returns the named adapter output as a string list.
// JSON arrays decode as []any; a bare string becomes a one-element
// list. Blank entries are dropped.
func stringsField(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v = strings.TrimSpace(v); v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// floatField returns the named adapter output as a float. Models
// occasionally quote numbers, so numeric strings are accepted too.
func floatField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// orDefault substitutes def for an empty string.
func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// withDefault substitutes def for an empty list.
func withDefault(list, def []string) []string {
	if len(list) == 0 {
		return def
	}
	return list
}

// normalizeRisk maps a model-reported risk score onto the 0-10 scale
// with two decimals. Scores at or below 1 are read as fractions of 10.
func normalizeRisk(v float64) float64 {
	if v <= 1 {
		v *= 10
	}
	if v < 0 {
		v = 0
	}
	if v > 10 {
		v = 10
	}
	return math.Round(v*100) / 100
}

// Impact levels reported by build-stage analysis.
const (
	ImpactLow    = "Low"
	ImpactMedium = "Medium"
	ImpactHigh   = "High"
)

// normalizeImpact canonicalizes a model-reported impact level. It
// accepts any casing and the common synonyms; anything else is
// rejected so a garbled reply fails the agent instead of leaking an
// unknown level into reports.
func normalizeImpact(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "minor":
		return ImpactLow, true
	case "medium", "moderate":
		return ImpactMedium, true
	case "high", "critical", "severe":
		return ImpactHigh, true
	default:
		return "", false
	}
}
