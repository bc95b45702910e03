package tui

import (
	"github.com/mmcdole/gamedeck/internal/domain"
)

// Message types for the TUI

// ViewID names a paged game list
type ViewID int

const (
	ViewHome ViewID = iota
	ViewCategory
	ViewSearch
)

func (v ViewID) String() string {
	switch v {
	case ViewCategory:
		return "category"
	case ViewSearch:
		return "search"
	default:
		return "home"
	}
}

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ListChangedMsg signals that a listing store changed state.
// It carries no snapshot; the model reads State() when handling it.
type ListChangedMsg struct {
	View ViewID
}

// FavoritesChangedMsg signals that the favorites set changed
type FavoritesChangedMsg struct{}

// LoadFinishedMsg signals that a page request returned
type LoadFinishedMsg struct {
	View ViewID
	Err  error
}

// CategoriesLoadedMsg carries the category list
type CategoriesLoadedMsg struct {
	Categories []domain.Item
}

// GameDetailMsg carries a fetched game detail record
type GameDetailMsg struct {
	ID   domain.ItemID
	Game *domain.Item
	Err  error
}

// PlayStartedMsg signals that a game was opened in the browser
type PlayStartedMsg struct {
	Game domain.Item
}

// FavoriteToggledMsg signals a persisted favorite change
type FavoriteToggledMsg struct {
	Item domain.Item
	On   bool
}

// SearchDebounceMsg fires after the search box has been idle.
// Only the message whose Seq matches the latest keystroke is acted on.
type SearchDebounceMsg struct {
	Seq   int
	Query string
}

// ClearStatusMsg clears the status line if nothing newer replaced it
type ClearStatusMsg struct {
	Seq int
}
