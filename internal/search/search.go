package search

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/gamedeck/internal/domain"
	"github.com/sahilm/fuzzy"
)

// ValidateQuery trims a search term and checks it against the minimum length.
// Short terms return ErrQueryTooShort and never reach the network.
func ValidateQuery(query string, minLength int) (string, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minLength {
		return query, fmt.Errorf("%q needs at least %d characters: %w", query, minLength, domain.ErrQueryTooShort)
	}
	return query, nil
}

// Match is an item matched by Filter, with the title positions to highlight
type Match struct {
	Item           domain.Item
	Index          int // position in the filtered slice
	MatchedIndexes []int
	Score          int // higher is better
}

// titleIndex implements sahilm/fuzzy.Source over pre-lowered titles
type titleIndex struct {
	lowerTitles []string
}

func (idx titleIndex) String(i int) string { return idx.lowerTitles[i] }
func (idx titleIndex) Len() int            { return len(idx.lowerTitles) }

func newTitleIndex(items []domain.Item) titleIndex {
	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = strings.ToLower(it.Title)
	}
	return titleIndex{lowerTitles: titles}
}

// Filter fuzzy-matches query against item titles, best match first.
// An empty query matches nothing.
func Filter(query string, items []domain.Item) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(items) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, newTitleIndex(items))

	results := make([]Match, len(matches))
	for i, m := range matches {
		results[i] = Match{
			Item:           items[m.Index],
			Index:          m.Index,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// RankFavorites orders the favorites matching query by closeness: exact title,
// then prefix, then substring, then subsequence matches by edit distance.
// Ties keep favorite order.
func RankFavorites(query string, items []domain.Item) []domain.Item {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]domain.Item, len(items))
		copy(out, items)
		return out
	}

	titles := newTitleIndex(items).lowerTitles
	ranks := lfuzzy.RankFindFold(query, titles)

	type ranked struct {
		item  domain.Item
		index int
		score int
	}
	results := make([]ranked, 0, len(ranks))
	for _, r := range ranks {
		results = append(results, ranked{
			item:  items[r.OriginalIndex],
			index: r.OriginalIndex,
			score: matchScore(titles[r.OriginalIndex], query),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score < results[j].score
		}
		return results[i].index < results[j].index
	})

	out := make([]domain.Item, len(results))
	for i, r := range results {
		out[i] = r.item
	}
	return out
}

// matchScore ranks a lowercase title against a lowercase query.
// Lower is better.
func matchScore(title, query string) int {
	switch {
	case title == query:
		return 0
	case strings.HasPrefix(title, query):
		return 10
	case strings.Contains(title, query):
		return 50
	default:
		return 100 + lfuzzy.LevenshteinDistance(query, title)
	}
}
