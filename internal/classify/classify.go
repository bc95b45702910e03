// Package classify infers a display category for a game from its text.
package classify

import (
	"strings"

	"github.com/mmcdole/gamedeck/internal/domain"
)

// Category is an inferred game genre
type Category string

const (
	Action      Category = "action"
	Puzzle      Category = "puzzle"
	Racing      Category = "racing"
	Skill       Category = "skill"
	Arcade      Category = "arcade"
	Educational Category = "educational"
	Sport       Category = "sport"
	Quiz        Category = "quiz"
)

// Title returns the capitalized category name
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

type rule struct {
	category Category
	keywords []string
}

// rules are evaluated in order; a later matching category overrides an earlier one
var rules = []rule{
	{Action, []string{"action", "battle", "fight", "shooter", "gun", "warrior", "combat"}},
	{Puzzle, []string{"puzzle", "match", "brain", "logic", "solve", "connect", "tetris"}},
	{Racing, []string{"racing", "race", "car", "drive", "speed", "drift", "track"}},
	{Skill, []string{"skill", "throw", "jump", "balance", "precision", "aim"}},
	{Arcade, []string{"arcade", "retro", "classic", "score", "coin", "pac-man", "platform"}},
	{Educational, []string{"learn", "educational", "math", "words", "science", "knowledge"}},
	{Sport, []string{"sport", "football", "soccer", "basketball", "baseball", "golf", "tennis"}},
	{Quiz, []string{"quiz", "question", "trivia", "knowledge", "answer"}},
}

var fallback = [5]Category{Arcade, Action, Puzzle, Skill, Sport}

// Classify returns the category whose keywords appear in the item's title or
// description, or a category derived from the id when none match.
// It always returns a category.
func Classify(item domain.Item) Category {
	title := strings.ToLower(item.Title)
	desc := strings.ToLower(item.Description)

	var found Category
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(title, kw) || strings.Contains(desc, kw) {
				found = r.category
				break
			}
		}
	}
	if found != "" {
		return found
	}
	return byID(item.ID)
}

// byID spreads unmatched games over five categories. Ids that are not
// non-negative integers land on the last bucket.
func byID(id domain.ItemID) Category {
	n, ok := id.Int()
	if !ok || n < 0 {
		return fallback[len(fallback)-1]
	}
	return fallback[n%int64(len(fallback))]
}
