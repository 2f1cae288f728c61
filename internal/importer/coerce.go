package importer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// coerce converts a decoded JSON value to the Go value stored for f:
// string, int64, bool, float64, time.Time or a canonical UUID string.
// A nil result means SQL NULL.
func coerce(f Field, v any) (any, error) {
	if f.EmptyAsNull && isFalsy(v) {
		return nil, nil
	}
	if v == nil {
		if f.Required && !f.Nullable {
			return nil, invalid("must not be null")
		}
		return nil, nil
	}

	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, invalid("expected string, got %s", kindOf(v))
		}
		return s, nil
	case TypeInteger:
		return toInt(v)
	case TypeFloat:
		return toFloat(v)
	case TypeBoolean:
		return toBool(v)
	case TypeDate:
		return toDate(v)
	case TypeDateTime:
		return toDateTime(v)
	case TypeUUID:
		s, ok := v.(string)
		if !ok {
			return nil, invalid("expected uuid string, got %s", kindOf(v))
		}
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, invalid("%q is not a uuid", s)
		}
		return id.String(), nil
	}
	return nil, invalid("unsupported field type %s", f.Type)
}

func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}

func toInt(v any) (any, error) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return nil, invalid("expected integer, got %s", kindOf(v))
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return nil, invalid("%q is not an integer", s)
	}
	return int64(f), nil
}

func toFloat(v any) (any, error) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	case float64:
		return x, nil
	default:
		return nil, invalid("expected number, got %s", kindOf(v))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, invalid("%q is not a number", s)
	}
	return f, nil
}

func toBool(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case json.Number:
		switch x.String() {
		case "0", "0.0":
			return false, nil
		case "1", "1.0":
			return true, nil
		}
		return nil, invalid("%s is not a boolean", x)
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "t", "yes", "y", "on":
			return true, nil
		case "0", "false", "f", "no", "n", "off":
			return false, nil
		}
		return nil, invalid("%q is not a boolean", x)
	}
	return nil, invalid("expected boolean, got %s", kindOf(v))
}

const dateLayout = "2006-01-02"

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func toDate(v any) (any, error) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if d, err := time.Parse(dateLayout, s); err == nil {
			return d, nil
		}
		t, err := parseDateTime(s)
		if err != nil {
			return nil, invalid("%q is not a date", x)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	case json.Number:
		t, err := unixTime(x)
		if err != nil {
			return nil, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return nil, invalid("expected date, got %s", kindOf(v))
}

func toDateTime(v any) (any, error) {
	switch x := v.(type) {
	case string:
		t, err := parseDateTime(strings.TrimSpace(x))
		if err != nil {
			return nil, invalid("%q is not a datetime", x)
		}
		return t, nil
	case json.Number:
		return unixTime(x)
	}
	return nil, invalid("expected datetime, got %s", kindOf(v))
}

// parseDateTime accepts RFC 3339 and the common naive layouts. Naive values
// are taken as UTC.
func parseDateTime(s string) (time.Time, error) {
	var err error
	for _, layout := range dateTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if d, derr := time.Parse(dateLayout, s); derr == nil {
		return d, nil
	}
	return time.Time{}, err
}

// unixTime reads seconds since the epoch; values too large to be seconds
// are taken as milliseconds.
func unixTime(n json.Number) (time.Time, error) {
	f, err := n.Float64()
	if err != nil {
		return time.Time{}, invalid("%s is not a timestamp", n)
	}
	if math.Abs(f) > 2e10 {
		f /= 1000
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}
