// Package normalize maps loosely shaped backend records onto the canonical
// console entities.
//
// Each entity has one alias table: for every canonical field an ordered list
// of candidate paths (camelCase, snake_case, dotted nested). The first
// candidate holding a non-null value wins; otherwise the field takes its
// documented default. Nothing in this package returns an error or panics on
// malformed input.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"cps-console/internal/expiry"
)

// Raw is a decoded JSON object.
type Raw = map[string]any

// table maps a canonical field to its candidate paths in priority order.
type table map[string][]string

type resolver struct {
	raw   Raw
	table table
	now   time.Time
}

func newResolver(r Raw, t table, now time.Time) resolver {
	if r == nil {
		r = Raw{}
	}
	return resolver{raw: r, table: t, now: now}
}

func (res resolver) candidates(field string) []string {
	if c, ok := res.table[field]; ok {
		return c
	}
	return []string{field}
}

// value returns the first non-null candidate for field.
func (res resolver) value(field string) (any, bool) {
	return Lookup(res.raw, res.candidates(field)...)
}

func (res resolver) has(field string) bool {
	_, ok := res.value(field)
	return ok
}

func (res resolver) int64(field string) int64 {
	v, _ := res.value(field)
	n, _ := Int64(v)
	return n
}

func (res resolver) int(field string) int {
	return int(res.int64(field))
}

func (res resolver) int64Ptr(field string) *int64 {
	v, ok := res.value(field)
	if !ok {
		return nil
	}
	n, ok := Int64(v)
	if !ok {
		return nil
	}
	return &n
}

func (res resolver) intPtr(field string) *int {
	v, ok := res.value(field)
	if !ok {
		return nil
	}
	n, ok := Int64(v)
	if !ok {
		return nil
	}
	i := int(n)
	return &i
}

func (res resolver) str(field string) string {
	v, _ := res.value(field)
	return String(v)
}

func (res resolver) strOr(field, def string) string {
	if s := res.str(field); s != "" {
		return s
	}
	return def
}

func (res resolver) boolOr(field string, def bool) bool {
	v, ok := res.value(field)
	if !ok {
		return def
	}
	return Bool(v)
}

// time resolves a timestamp, falling back to now.
func (res resolver) time(field string) time.Time {
	if t := res.timePtr(field); t != nil {
		return *t
	}
	return res.now
}

func (res resolver) timePtr(field string) *time.Time {
	v, ok := res.value(field)
	if !ok {
		return nil
	}
	t, ok := Time(v)
	if !ok {
		return nil
	}
	return &t
}

func (res resolver) object(field string) Raw {
	v, _ := res.value(field)
	m, _ := v.(Raw)
	return m
}

func (res resolver) list(field string) []Raw {
	v, _ := res.value(field)
	return List(v)
}

// Lookup returns the value of the first path that resolves to a non-null
// value. A path is a key or a dot separated chain of keys into nested
// objects.
func Lookup(r Raw, paths ...string) (any, bool) {
	for _, p := range paths {
		if v, ok := lookupPath(r, p); ok {
			return v, true
		}
	}
	return nil, false
}

func lookupPath(r Raw, path string) (any, bool) {
	var cur any = r
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(Raw)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Int64 coerces JSON numbers, numeric strings and booleans. The second
// result is false when v has no numeric reading, in which case 0 is
// returned.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case float32:
		return Int64(float64(n))
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		return Int64(string(n))
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Int64(f)
		}
		return 0, false
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func String(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return string(s)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "y", "on":
			return true
		default:
			return false
		}
	default:
		n, ok := Int64(v)
		return ok && n != 0
	}
}

// Time reads RFC3339 and the other layouts the expiry package accepts.
// Numbers are taken as Unix milliseconds.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		return expiry.Parse(s, time.UTC)
	case float64, int, int64, json.Number:
		ms, ok := Int64(t)
		if !ok || ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	default:
		return time.Time{}, false
	}
}
