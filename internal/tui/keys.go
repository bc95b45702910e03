package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Tabs
	TabHome       key.Binding
	TabCategories key.Binding
	TabSearch     key.Binding
	TabFavorites  key.Binding
	NextTab       key.Binding
	PrevTab       key.Binding

	// Actions
	Open      key.Binding
	Back      key.Binding
	Play      key.Binding
	Favorite  key.Binding
	Refresh   key.Binding
	Filter    key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		TabHome: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "home"),
		),
		TabCategories: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "categories"),
		),
		TabSearch: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "search"),
		),
		TabFavorites: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "favorites"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous tab"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "l", "right"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "h", "left"),
			key.WithHelp("esc", "back"),
		),
		Play: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "play in browser"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle favorite"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh/retry"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter (search box on search tab)"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// HelpSections groups bindings for the help overlay
func (k KeyMap) HelpSections() [][]key.Binding {
	return [][]key.Binding{
		{k.TabHome, k.TabCategories, k.TabSearch, k.TabFavorites, k.NextTab, k.PrevTab},
		{k.Open, k.Back, k.Play, k.Favorite, k.Refresh, k.Filter, k.Help, k.Quit},
	}
}
