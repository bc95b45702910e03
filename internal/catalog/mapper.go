package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mmcdole/gamedeck/internal/domain"
)

// MapPage normalizes a list response body into a Page.
// Accepted shapes are a PageEnvelope, an object wrapping a PageEnvelope under
// one key, and a bare array (a single page). Any other body returns an empty
// page with LastPage == requested and ErrMalformedResponse.
func MapPage(body []byte, requested int) (domain.Page, int, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return emptyPage(requested), 0, fmt.Errorf("empty body: %w", domain.ErrMalformedResponse)
	}

	switch body[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return emptyPage(requested), 0, fmt.Errorf("failed to parse list: %w", domain.ErrMalformedResponse)
		}
		items, skipped := MapItems(raw)
		return domain.Page{Items: items, CurrentPage: requested, LastPage: 1}, skipped, nil

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return emptyPage(requested), 0, fmt.Errorf("failed to parse object: %w", domain.ErrMalformedResponse)
		}
		if env, ok := pageEnvelope(fields); ok {
			return mapEnvelope(env, requested)
		}
		for _, key := range wrapperKeys(fields) {
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(fields[key], &inner); err != nil {
				continue
			}
			if env, ok := pageEnvelope(inner); ok {
				return mapEnvelope(env, requested)
			}
		}
	}

	return emptyPage(requested), 0, domain.ErrMalformedResponse
}

// pageEnvelope decodes fields as a PageEnvelope when "data" holds an array
func pageEnvelope(fields map[string]json.RawMessage) (PageEnvelope, bool) {
	data, ok := fields["data"]
	if !ok {
		return PageEnvelope{}, false
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return PageEnvelope{}, false
	}

	var env PageEnvelope
	if err := json.Unmarshal(data, &env.Data); err != nil {
		return PageEnvelope{}, false
	}
	if raw, ok := fields["last_page"]; ok {
		_ = json.Unmarshal(raw, &env.LastPage)
	}
	if raw, ok := fields["current_page"]; ok {
		_ = json.Unmarshal(raw, &env.CurrentPage)
	}
	return env, true
}

// wrapperKeys orders candidate wrapper keys: known ones first, then the rest sorted
func wrapperKeys(fields map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(nestedPageKeys))
	for _, k := range nestedPageKeys {
		if _, ok := fields[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func mapEnvelope(env PageEnvelope, requested int) (domain.Page, int, error) {
	items, skipped := MapItems(env.Data)
	last := 1
	if env.LastPage.Set && env.LastPage.Value > 0 {
		last = env.LastPage.Value
	}
	return domain.Page{Items: items, CurrentPage: requested, LastPage: last}, skipped, nil
}

// MapItems decodes list entries, dropping entries that are not objects or
// carry no id. Returns the number of dropped entries.
func MapItems(raw []json.RawMessage) ([]domain.Item, int) {
	items := make([]domain.Item, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		var it domain.Item
		if err := json.Unmarshal(r, &it); err != nil || it.ID.IsZero() {
			skipped++
			continue
		}
		items = append(items, it)
	}
	return items, skipped
}

// MapCategories decodes a bare array or {"data": [...]}
func MapCategories(body []byte) ([]domain.Item, error) {
	body = bytes.TrimSpace(body)
	raw := body
	if len(body) > 0 && body[0] == '{' {
		var env DataEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("failed to parse categories: %w", domain.ErrMalformedResponse)
		}
		raw = bytes.TrimSpace(env.Data)
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("categories are not a list: %w", domain.ErrMalformedResponse)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", domain.ErrMalformedResponse)
	}
	items, _ := MapItems(list)
	return domain.Dedup(items), nil
}

// MapGame decodes {"data": {...}} or a bare object.
// A record without an id takes the requested one.
func MapGame(body []byte, id domain.ItemID) (*domain.Item, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, fmt.Errorf("game is not an object: %w", domain.ErrMalformedResponse)
	}

	raw := body
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse game: %w", domain.ErrMalformedResponse)
	}
	if data, ok := fields["data"]; ok {
		data = bytes.TrimSpace(data)
		if bytes.Equal(data, []byte("null")) {
			return nil, domain.ErrGameNotFound
		}
		if len(data) > 0 && data[0] == '{' {
			raw = data
		}
	}

	var game domain.Item
	if err := json.Unmarshal(raw, &game); err != nil {
		return nil, fmt.Errorf("failed to parse game: %w", domain.ErrMalformedResponse)
	}
	if game.ID.IsZero() {
		game.ID = id
	}
	return &game, nil
}

func emptyPage(requested int) domain.Page {
	return domain.Page{Items: []domain.Item{}, CurrentPage: requested, LastPage: requested}
}

// DefaultCategories is the built-in category list used when the API and the
// local cache both have nothing.
func DefaultCategories() []domain.Item {
	names := []string{"Arcade", "Action", "Puzzle", "Skill", "Girls", "Quiz", "Math", "Brain", "Sports", "Strategy"}
	cats := make([]domain.Item, len(names))
	for i, name := range names {
		cats[i] = domain.Item{ID: domain.ItemID(fmt.Sprint(i + 1)), Title: name}
	}
	return cats
}
