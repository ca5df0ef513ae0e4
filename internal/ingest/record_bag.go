package ingest

import (
	"strconv"
	"strings"
	"time"
)

// RecordBag is an opaque property bag as returned by the external document
// store. Shapes vary per document kind and store version; all access goes
// through the typed getters below, which tolerate missing or oddly-typed
// values.
type RecordBag map[string]interface{}

func (b RecordBag) stringAt(keys ...string) string {
	for _, key := range keys {
		switch v := b[key].(type) {
		case string:
			if v != "" {
				return v
			}
		}
	}
	return ""
}

func (b RecordBag) floatAt(keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := b[key].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func (b RecordBag) bagAt(keys ...string) RecordBag {
	for _, key := range keys {
		switch v := b[key].(type) {
		case map[string]interface{}:
			return RecordBag(v)
		case RecordBag:
			return v
		}
	}
	return nil
}

// dateAt parses the first present key as a calendar date or RFC 3339
// timestamp. Store records carry both depending on the field.
func (b RecordBag) dateAt(keys ...string) (time.Time, bool) {
	for _, key := range keys {
		s, ok := b[key].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
