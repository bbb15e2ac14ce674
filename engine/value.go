package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Scalar coercion helpers. Warehouse rows arrive from JSON or CSV loads, so
// numbers may be float64, json.Number or numeric strings, and timestamps may
// be ISO strings or unix seconds.

// stringify renders a scalar in the canonical string form used for index
// keys, distinct counting and group values.
func stringify(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(tv), 'f', -1, 32)
	case int:
		return strconv.Itoa(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	case json.Number:
		return tv.String()
	default:
		return fmt.Sprint(tv)
	}
}

// toFloat coerces a scalar to float64. Non-numeric values report false.
func toFloat(v any) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case float32:
		return float64(tv), true
	case int:
		return float64(tv), true
	case int64:
		return float64(tv), true
	case int32:
		return float64(tv), true
	case json.Number:
		f, err := tv.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(tv, 64)
		return f, err == nil
	case bool:
		if tv {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// toTime coerces a scalar timestamp: ISO-style strings or unix seconds
// (milliseconds when the magnitude says so). All times are UTC.
func toTime(v any) (time.Time, bool) {
	switch tv := v.(type) {
	case string:
		for _, f := range timestampFormats {
			if t, err := time.Parse(f, tv); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	case time.Time:
		return tv.UTC(), true
	default:
		f, ok := toFloat(v)
		if !ok || f <= 0 {
			return time.Time{}, false
		}
		// Heuristic: values past the year 33658 in seconds are milliseconds.
		if f > 1e12 {
			return time.UnixMilli(int64(f)).UTC(), true
		}
		return time.Unix(int64(f), 0).UTC(), true
	}
}
