package lastfm

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Last.fm's JSON is converted from XML, so numbers and booleans often
// arrive as strings, text nodes as {"#text": ...}, and single-element
// lists as bare objects. The types below absorb those differences.

// flexInt decodes 12, "12" or "" (as 0).
type flexInt int64

func (n *flexInt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*n = flexInt(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = flexInt(v)
	return nil
}

// flexBool decodes true, 1, "1" and "true" as true.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.Trim(data, `"`)) {
	case "1", "true":
		*b = true
	default:
		*b = false
	}
	return nil
}

// textField decodes "x", {"#text": "x"} or {"name": "x"}.
type textField struct {
	Text      string
	Corrected bool
}

func (t *textField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Text)
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var obj struct {
		Text      string   `json:"#text"`
		Name      string   `json:"name"`
		Corrected flexBool `json:"corrected"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Text = obj.Text
	if t.Text == "" {
		t.Text = obj.Name
	}
	t.Corrected = bool(obj.Corrected)
	return nil
}

// oneOrMany decodes either a JSON array of T or a single T.
type oneOrMany[T any] []T

func (m *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*m = items
		return nil
	}
	// An empty search result is sometimes a text node rather than a list.
	if data[0] == '"' {
		*m = nil
		return nil
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*m = oneOrMany[T]{item}
	return nil
}

// decodeMember unmarshals the named top-level member of p into v.
func decodeMember(p Payload, name string, v any) error {
	raw, ok := p[name]
	if !ok {
		return &missingFieldError{field: name}
	}
	return json.Unmarshal(raw, v)
}

type missingFieldError struct{ field string }

func (e *missingFieldError) Error() string {
	return "missing " + e.field + " object"
}
