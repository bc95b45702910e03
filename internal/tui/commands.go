package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/gamedeck/internal/domain"
	"github.com/mmcdole/gamedeck/internal/listing"
	"github.com/mmcdole/gamedeck/internal/player"
)

// Command factories for async operations

// requestTimeout bounds one page or detail request including retries
const requestTimeout = 60 * time.Second

// statusTimeout is how long a status line message stays up
const statusTimeout = 4 * time.Second

// PageLoader is the listing store surface the TUI drives
type PageLoader interface {
	State() listing.State
	LoadFirstPage(ctx context.Context, filter domain.Filter) error
	Refresh(ctx context.Context) error
	LoadNextPage(ctx context.Context) error
	Retry(ctx context.Context) error
	Reset(filter domain.Filter)
}

// FavoriteToggler is the favorites store surface the TUI drives
type FavoriteToggler interface {
	Toggle(item domain.Item) (bool, error)
	Contains(id domain.ItemID) bool
	List() []domain.Item
}

// GamePlayer opens a game outside the terminal
type GamePlayer interface {
	Play(ctx context.Context, games player.GameSource, id domain.ItemID) (*domain.Item, error)
}

// LoadFirstPageCmd resets a list to filter and loads page 1
func LoadFirstPageCmd(store PageLoader, view ViewID, filter domain.Filter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return LoadFinishedMsg{View: view, Err: store.LoadFirstPage(ctx, filter)}
	}
}

// RefreshCmd reloads page 1 of a list
func RefreshCmd(store PageLoader, view ViewID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return LoadFinishedMsg{View: view, Err: store.Refresh(ctx)}
	}
}

// LoadNextPageCmd appends the next page of a list
func LoadNextPageCmd(store PageLoader, view ViewID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return LoadFinishedMsg{View: view, Err: store.LoadNextPage(ctx)}
	}
}

// RetryCmd repeats the failed request of a list
func RetryCmd(store PageLoader, view ViewID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return LoadFinishedMsg{View: view, Err: store.Retry(ctx)}
	}
}

// LoadCategoriesCmd fetches the category list (cached or built-in on failure)
func LoadCategoriesCmd(client domain.CatalogClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		categories, err := client.GetCategories(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading categories"}
		}
		return CategoriesLoadedMsg{Categories: categories}
	}
}

// LoadGameCmd fetches a game's detail record
func LoadGameCmd(client domain.CatalogClient, id domain.ItemID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		game, err := client.GetGame(ctx, id)
		return GameDetailMsg{ID: id, Game: game, Err: err}
	}
}

// PlayCmd resolves a game's embed URL and opens it
func PlayCmd(p GamePlayer, client domain.CatalogClient, id domain.ItemID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		game, err := p.Play(ctx, client, id)
		if err != nil {
			return ErrMsg{Err: err, Context: "playing game"}
		}
		return PlayStartedMsg{Game: *game}
	}
}

// ToggleFavoriteCmd adds or removes a favorite and persists the change
func ToggleFavoriteCmd(favs FavoriteToggler, item domain.Item) tea.Cmd {
	return func() tea.Msg {
		on, err := favs.Toggle(item)
		if err != nil {
			return ErrMsg{Err: err, Context: "saving favorite"}
		}
		return FavoriteToggledMsg{Item: item, On: on}
	}
}

// SearchDebounceCmd fires a SearchDebounceMsg after delay
func SearchDebounceCmd(seq int, query string, delay time.Duration) tea.Cmd {
	msg := SearchDebounceMsg{Seq: seq, Query: query}
	if delay <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return msg })
}

// ClearStatusCmd clears the status line after statusTimeout
func ClearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
