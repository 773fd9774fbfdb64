package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Time decodes the API's ISO-8601 timestamps, which carry no zone and may omit the
// time of day. A JSON null decodes to the zero time.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format("2006-01-02T15:04:05"))
}

// Date formats the day part, or "" for the zero time
func (t Time) Date() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// FlexString accepts a JSON string or number. The API reports some people fields
// as a user id in one endpoint and a username in another.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Parts is the list of parts replaced during maintenance. Records written by other
// clients may hold a comma separated string or an object instead of a list.
type Parts []string

func (p *Parts) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*p = nil
	case string:
		*p = SplitParts(v)
	case []any:
		out := make(Parts, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		*p = out
	case map[string]any:
		out := make(Parts, 0, len(v))
		for k, item := range v {
			out = append(out, fmt.Sprintf("%s: %v", k, item))
		}
		slices.Sort(out)
		*p = out
	default:
		*p = Parts{fmt.Sprint(v)}
	}
	return nil
}

func (p Parts) String() string {
	return strings.Join(p, ", ")
}

// SplitParts turns comma separated form input into a parts list
func SplitParts(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
