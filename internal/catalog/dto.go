package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// PageEnvelope is the paginated list body: {"data": [...], "last_page": n}
type PageEnvelope struct {
	Data        []json.RawMessage `json:"data"`
	LastPage    Number            `json:"last_page"`
	CurrentPage Number            `json:"current_page,omitempty"`
}

// DataEnvelope wraps a single record or a bare list: {"data": ...}
type DataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// Number is a pagination field the API sends as a JSON number or a numeric string
type Number struct {
	Value int
	Set   bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		// Tolerate junk pagination values; the mapper falls back to defaults
		*n = Number{}
		return nil
	}
	*n = Number{Value: v, Set: true}
	return nil
}

// nestedPageKeys are wrapper keys known to hold a PageEnvelope, checked first
var nestedPageKeys = []string{"games", "results", "items"}
