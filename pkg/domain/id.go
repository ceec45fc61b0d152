package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque identifier assigned by the remote API.
// The API may send numbers or strings; both decode to the same textual form.
type ID string

// IsZero reports whether the ID is unset, i.e. the record is a draft.
func (id ID) IsZero() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts 42, "42" and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}
