package onvista

import (
	"fmt"
	"strings"
	"time"

	"onvista/internal/instrument"
)

// The API names the same logical value differently across its two payload
// variants, so normalization reads each value through an ordered key chain.

// field returns the first of keys present in obj with a non-nil value of
// type T. A miss is a FieldNotFoundError naming the primary key.
func field[T any](obj map[string]any, keys ...string) (T, error) {
	if v, ok := optField[T](obj, keys...); ok {
		return v, nil
	}
	var zero T
	return zero, &instrument.FieldNotFoundError{Field: keys[0]}
}

// optField is field for values that may legitimately be absent.
func optField[T any](obj map[string]any, keys ...string) (T, bool) {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		if t, ok := v.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// child descends into a nested object.
func child(obj map[string]any, key string) (map[string]any, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, &instrument.FieldNotFoundError{Field: key}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field %q: unexpected type %T", key, v)
	}
	return m, nil
}

// parseAPITime accepts the API's two timestamp shapes: UNIX epoch seconds
// and ISO-8601 strings, the latter truncated at the fractional-seconds
// separator as the upstream mixes precision per endpoint.
func parseAPITime(v any) (time.Time, error) {
	switch t := v.(type) {
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	case string:
		s, _, _ := strings.Cut(t, ".")
		ts, err := time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", t, err)
		}
		return ts.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}
