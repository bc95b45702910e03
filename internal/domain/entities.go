package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ItemID is the canonical identity of a catalog record.
// The API sends ids as JSON numbers or strings; both decode to the same text,
// so 7 and "7" are the same item.
type ItemID string

// String returns the id text
func (id ItemID) String() string { return string(id) }

// IsZero reports whether the id is empty
func (id ItemID) IsZero() bool { return id == "" }

// Int returns the numeric value of the id when it is an integer
func (id ItemID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// UnmarshalJSON accepts a JSON number or string
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a number or string: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// MarshalJSON writes integer ids as numbers so persisted records keep the API's shape
func (id ItemID) MarshalJSON() ([]byte, error) {
	if isCanonicalInt(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isCanonicalInt(s string) bool {
	if s == "" || len(s) > 18 {
		return false
	}
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Item is a catalog record: a game or a category.
// Fields the client does not interpret are kept in Extra and written back
// unchanged, so a favorited game survives a round trip through storage.
type Item struct {
	ID          ItemID
	Title       string
	Thumbnail   string // empty means no image
	Description string

	Extra map[string]json.RawMessage
}

// Known JSON keys
const (
	keyID          = "id"
	keyTitle       = "title"
	keyThumbnail   = "thumbnail"
	keyDescription = "description"
	keyEmbed       = "embed"
)

// UnmarshalJSON decodes an API object, keeping unknown fields
func (it *Item) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var out Item
	if raw, ok := fields[keyID]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return err
		}
		delete(fields, keyID)
	}
	out.Title = takeString(fields, keyTitle)
	out.Thumbnail = takeString(fields, keyThumbnail)
	out.Description = takeString(fields, keyDescription)

	if len(fields) > 0 {
		out.Extra = fields
	}
	*it = out
	return nil
}

// MarshalJSON encodes the item with its pass-through fields
func (it Item) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(it.Extra)+4)
	for k, v := range it.Extra {
		fields[k] = v
	}
	fields[keyID] = it.ID
	// A non-string title stays in Extra and is written back as is
	if _, kept := it.Extra[keyTitle]; !kept || it.Title != "" {
		fields[keyTitle] = it.Title
	}
	if it.Thumbnail != "" {
		fields[keyThumbnail] = it.Thumbnail
	}
	if it.Description != "" {
		fields[keyDescription] = it.Description
	}
	return json.Marshal(fields)
}

// takeString removes key from fields and returns its string value.
// Non-string values are left in place as pass-through data.
func takeString(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	delete(fields, key)
	if s == nil {
		return ""
	}
	return *s
}

// Field returns a pass-through string field
func (it Item) Field(name string) (string, bool) {
	raw, ok := it.Extra[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// EmbedURL returns the playable URL from the game detail record
func (it Item) EmbedURL() string {
	s, _ := it.Field(keyEmbed)
	return strings.TrimSpace(s)
}

// HasThumbnail reports whether the item carries an image URL
func (it Item) HasThumbnail() bool {
	return strings.TrimSpace(it.Thumbnail) != ""
}

// Page is one fetched batch of items plus pagination metadata.
// Pages are 1-based; LastPage == CurrentPage means there is nothing more.
type Page struct {
	Items       []Item
	CurrentPage int
	LastPage    int
}

// HasMore reports whether a later page exists
func (p Page) HasMore() bool {
	return p.CurrentPage < p.LastPage
}

// FilterKind selects which remote collection a list shows
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterCategory
	FilterSearch
)

// Filter describes the collection backing a paged list
type Filter struct {
	Kind       FilterKind
	CategoryID ItemID
	Query      string
}

// AllGames is the default game list
func AllGames() Filter { return Filter{Kind: FilterAll} }

// ByCategory lists the games of one category
func ByCategory(id ItemID) Filter { return Filter{Kind: FilterCategory, CategoryID: id} }

// BySearch lists the results of a search term
func BySearch(query string) Filter {
	return Filter{Kind: FilterSearch, Query: strings.TrimSpace(query)}
}

// String renders the filter for logs
func (f Filter) String() string {
	switch f.Kind {
	case FilterCategory:
		return "category:" + f.CategoryID.String()
	case FilterSearch:
		return "search:" + f.Query
	default:
		return "all"
	}
}
