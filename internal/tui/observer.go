package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/gamedeck/internal/domain"
	"github.com/mmcdole/gamedeck/internal/listing"
)

// ChannelObserver adapts store subscriptions to a channel for Bubble Tea.
// Store callbacks run on whichever goroutine caused the change, so they only
// post a ping; the model pulls the current state when it handles the ping.
type ChannelObserver struct {
	ch chan<- tea.Msg
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- tea.Msg) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// Send posts msg to the channel (non-blocking if full).
// A dropped ping is harmless: any ping still queued triggers a full resync.
func (o *ChannelObserver) Send(msg tea.Msg) {
	select {
	case o.ch <- msg:
	default: // Non-blocking if channel full
	}
}

// OnList returns a listing subscriber for view
func (o *ChannelObserver) OnList(view ViewID) func(listing.State) {
	return func(listing.State) {
		o.Send(ListChangedMsg{View: view})
	}
}

// OnFavorites is a favorites subscriber
func (o *ChannelObserver) OnFavorites(_ []domain.Item) {
	o.Send(FavoritesChangedMsg{})
}

// WaitForEventCmd blocks until the next store event
func WaitForEventCmd(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
