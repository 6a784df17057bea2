package service

import (
	"encoding/json"
	"strconv"
	"strings"
)

// TagList is a tags field as clients send it: a JSON array, or a string holding
// a JSON document or comma-separated names. A nil *TagList means "not sent".
type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if s, ok := v.(string); ok {
		*t = ParseTags(s)
		return nil
	}
	*t = tagsFromValue(v)
	return nil
}

// Values returns the tags as a plain slice, never nil.
func (t *TagList) Values() []string {
	if t == nil || *t == nil {
		return []string{}
	}
	return []string(*t)
}

// ParseTags decodes a raw tags string. Valid JSON is used as is (an array gives
// its elements, a scalar gives one tag); anything else is split on commas with
// blanks dropped.
func ParseTags(raw string) []string {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return tagsFromValue(v)
	}

	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func tagsFromValue(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			if s, ok := scalarString(el); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := scalarString(t); ok {
			return []string{s}
		}
		return []string{}
	}
}

// scalarString stringifies JSON scalars. null, objects and arrays are skipped.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
