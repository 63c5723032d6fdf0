// Package entity provides the open-ended game-design record and safe field access.
package entity

import (
	"math"
	"strconv"
	"strings"
)

// Record is one draft or saved game-design object (ability, item, effect, ...).
// Values are whatever a YAML or JSON decoder produced; no shape is enforced.
type Record map[string]any

// Number reads a numeric field. Numeric strings are parsed. Missing, non-numeric,
// NaN and infinite values return def.
func (r Record) Number(key string, def float64) float64 {
	if r == nil {
		return def
	}
	v, ok := toNumber(r[key])
	if !ok {
		return def
	}
	return v
}

// HasNumber reports whether key holds a usable numeric value.
func (r Record) HasNumber(key string) bool {
	if r == nil {
		return false
	}
	_, ok := toNumber(r[key])
	return ok
}

// String reads a string field, trimmed. Empty or non-string values return def.
func (r Record) String(key, def string) string {
	if r == nil {
		return def
	}
	s, ok := r[key].(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// Bool reads a boolean field. The strings "true"/"false" are accepted.
func (r Record) Bool(key string) bool {
	if r == nil {
		return false
	}
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

// List reads a sequence field. Anything that is not a sequence yields an empty list.
func (r Record) List(key string) []any {
	if r == nil {
		return []any{}
	}
	switch v := r[key].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	case []Record:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	default:
		return []any{}
	}
}

// Records reads a sequence of nested records, skipping entries that are not maps.
func (r Record) Records(key string) []Record {
	list := r.List(key)
	out := make([]Record, 0, len(list))
	for _, v := range list {
		if rec, ok := AsRecord(v); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Record reads a nested map field.
func (r Record) Record(key string) (Record, bool) {
	if r == nil {
		return nil, false
	}
	return AsRecord(r[key])
}

// ID returns the record's id, or "" for drafts.
func (r Record) ID() string {
	return r.String("id", "")
}

// Label returns the display name: name, then title, then "<kind> draft".
func (r Record) Label(kind Kind) string {
	if name := r.String("name", ""); name != "" {
		return name
	}
	if title := r.String("title", ""); title != "" {
		return title
	}
	return string(kind) + " draft"
}

// AsRecord converts a decoded map value to a Record.
func AsRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, m != nil
	case map[string]any:
		return Record(m), m != nil
	case map[any]any:
		out := make(Record, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case interface{ Float64() (float64, error) }:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
