package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/gamedeck/internal/classify"
	"github.com/mmcdole/gamedeck/internal/domain"
	"github.com/mmcdole/gamedeck/internal/search"
	"github.com/mmcdole/gamedeck/internal/tui/styles"
)

// Layout constants for game lists
const (
	// Border adds 1 char on each side (left+right for width, top+bottom for height)
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// FilterMode selects how the in-list filter matches
type FilterMode int

const (
	// FilterFuzzy keeps list order out and ranks by fuzzy score, with highlights
	FilterFuzzy FilterMode = iota
	// FilterRanked ranks by title closeness (exact, prefix, substring, subsequence)
	FilterRanked
)

// GameList is a scrollable list of catalog items with an inline filter
type GameList struct {
	title string
	items []domain.Item

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	// Load state, mirrored from the backing store
	loading     bool
	loadingMore bool
	hasMore     bool
	errText     string
	emptyText   string
	spinner     string

	// Decorations
	isFavorite func(domain.ItemID) bool
	showBadge  bool

	// Filter state
	filterMode   FilterMode
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int         // indices into items
	highlights   map[int][]int // item index -> matched byte offsets
}

// NewGameList creates an empty list
func NewGameList(title string, mode FilterMode) *GameList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &GameList{
		title:       title,
		filterMode:  mode,
		filterInput: ti,
		emptyText:   "No games",
	}
}

// SetTitle sets the header line
func (c *GameList) SetTitle(title string) { c.title = title }

// Title returns the header line
func (c *GameList) Title() string { return c.title }

// SetItems replaces the items, keeping the cursor on the same id when possible
func (c *GameList) SetItems(items []domain.Item) {
	var selected domain.ItemID
	if it, ok := c.Selected(); ok {
		selected = it.ID
	}

	c.items = items
	if c.filterActive && c.filterQuery != "" {
		c.applyFilter()
	}

	c.cursor = 0
	if !selected.IsZero() {
		for i := 0; i < c.ItemCount(); i++ {
			if c.items[c.mapIndex(i)].ID == selected {
				c.cursor = i
				break
			}
		}
	}
	c.clampCursor()
	c.ensureVisible()
}

// Items returns the unfiltered items
func (c *GameList) Items() []domain.Item { return c.items }

// SetLoading marks a first-page load in flight
func (c *GameList) SetLoading(loading bool) { c.loading = loading }

// SetLoadingMore marks an append in flight
func (c *GameList) SetLoadingMore(loading bool) { c.loadingMore = loading }

// SetHasMore records whether more pages exist
func (c *GameList) SetHasMore(more bool) { c.hasMore = more }

// SetError shows an error line with a retry hint; empty clears it
func (c *GameList) SetError(text string) { c.errText = text }

// SetEmptyText sets the message shown for an empty list
func (c *GameList) SetEmptyText(text string) { c.emptyText = text }

// SetSpinner sets the current spinner frame
func (c *GameList) SetSpinner(frame string) { c.spinner = frame }

// SetFavoriteFunc sets the favorite lookup used for the heart marker
func (c *GameList) SetFavoriteFunc(fn func(domain.ItemID) bool) { c.isFavorite = fn }

// SetShowBadge toggles category badges
func (c *GameList) SetShowBadge(show bool) { c.showBadge = show }

// Selected returns the item under the cursor
func (c *GameList) Selected() (domain.Item, bool) {
	if c.cursor < 0 || c.cursor >= c.ItemCount() {
		return domain.Item{}, false
	}
	return c.items[c.mapIndex(c.cursor)], true
}

// Cursor returns the cursor position in the visible (filtered) list
func (c *GameList) Cursor() int { return c.cursor }

// ItemCount returns the number of visible items
func (c *GameList) ItemCount() int {
	if c.filteredIdx != nil {
		return len(c.filteredIdx)
	}
	return len(c.items)
}

// NearEnd reports whether the cursor is within threshold rows of the end of
// the unfiltered list
func (c *GameList) NearEnd(threshold int) bool {
	if c.filterActive && c.filterQuery != "" {
		return false
	}
	return len(c.items) == 0 || c.cursor >= len(c.items)-1-threshold
}

// ToggleFilter activates the filter input
func (c *GameList) ToggleFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (c *GameList) IsFiltering() bool { return c.filterActive }

// IsFilterTyping returns true if the filter input has focus
func (c *GameList) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all items
func (c *GameList) ClearFilter() { c.clearFilter() }

// Update handles navigation and filter keys
func (c *GameList) Update(msg tea.Msg) (*GameList, tea.Cmd) {
	if !c.focused {
		return c, nil
	}
	keyMsg, isKey := msg.(tea.KeyMsg)

	// Filter input has focus (typing mode)
	if c.filterActive && c.filterInput.Focused() {
		if isKey {
			switch {
			case key.Matches(keyMsg, ListKeys.Escape):
				c.clearFilter()
				return c, nil
			case key.Matches(keyMsg, ListKeys.Accept):
				c.filterInput.Blur()
				return c, nil
			case keyMsg.String() == "backspace" && c.filterInput.Value() == "":
				c.clearFilter()
				return c, nil
			}
		}

		var cmd tea.Cmd
		c.filterInput, cmd = c.filterInput.Update(msg)
		c.filterQuery = c.filterInput.Value()
		c.applyFilter()
		c.cursor = 0
		c.offset = 0
		return c, cmd
	}

	if !isKey {
		return c, nil
	}

	// Filter active but blurred (navigating results)
	if c.filterActive {
		switch {
		case key.Matches(keyMsg, ListKeys.Escape):
			c.clearFilter()
			return c, nil
		case key.Matches(keyMsg, ListKeys.Filter):
			c.filterInput.Focus()
			return c, nil
		}
	}

	count := c.ItemCount()
	if count == 0 {
		return c, nil
	}

	switch {
	case key.Matches(keyMsg, ListKeys.Down):
		if c.cursor < count-1 {
			c.cursor++
		}
	case key.Matches(keyMsg, ListKeys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(keyMsg, ListKeys.Home):
		c.cursor = 0
		c.offset = 0
	case key.Matches(keyMsg, ListKeys.End):
		c.cursor = count - 1
	case key.Matches(keyMsg, ListKeys.HalfDown):
		c.cursor += max(c.maxVisible/2, 1)
	case key.Matches(keyMsg, ListKeys.HalfUp):
		c.cursor -= max(c.maxVisible/2, 1)
	case key.Matches(keyMsg, ListKeys.PageDown):
		c.cursor += c.maxVisible
	case key.Matches(keyMsg, ListKeys.PageUp):
		c.cursor -= c.maxVisible
	}
	c.clampCursor()
	c.ensureVisible()
	return c, nil
}

// View renders the list inside a border
func (c *GameList) View() string {
	style := styles.InactiveBorder
	if c.focused {
		style = styles.ActiveBorder
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(c.width-frameW, 0)).
		Height(max(c.height-frameH, 0)).
		Render(c.renderContent())
}

// SetSize updates the list dimensions
func (c *GameList) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

// SetFocused sets keyboard focus
func (c *GameList) SetFocused(focused bool) { c.focused = focused }

// Internal methods

func (c *GameList) clearFilter() {
	c.filterActive = false
	c.filterQuery = ""
	c.filteredIdx = nil
	c.highlights = nil
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.recalcMaxVisible()
	c.clampCursor()
	c.ensureVisible()
}

func (c *GameList) applyFilter() {
	if c.filterQuery == "" {
		c.filteredIdx = nil
		c.highlights = nil
		return
	}

	switch c.filterMode {
	case FilterRanked:
		ranked := search.RankFavorites(c.filterQuery, c.items)
		pos := make(map[domain.ItemID]int, len(c.items))
		for i, it := range c.items {
			pos[it.ID] = i
		}
		c.filteredIdx = make([]int, 0, len(ranked))
		for _, it := range ranked {
			c.filteredIdx = append(c.filteredIdx, pos[it.ID])
		}
		c.highlights = nil
	default:
		matches := search.Filter(c.filterQuery, c.items)
		c.filteredIdx = make([]int, len(matches))
		c.highlights = make(map[int][]int, len(matches))
		for i, m := range matches {
			c.filteredIdx[i] = m.Index
			c.highlights[m.Index] = m.MatchedIndexes
		}
	}
}

func (c *GameList) mapIndex(i int) int {
	if c.filteredIdx != nil && i < len(c.filteredIdx) {
		return c.filteredIdx[i]
	}
	return i
}

func (c *GameList) clampCursor() {
	count := c.ItemCount()
	if c.cursor >= count {
		c.cursor = count - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
}

func (c *GameList) recalcMaxVisible() {
	// Interior height minus title line and scroll indicators
	c.maxVisible = c.height - BorderHeight - ScrollIndicatorLines - 1
	if c.filterActive {
		c.maxVisible--
	}
	if c.errText != "" || c.loadingMore {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *GameList) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
}

// Rendering

func (c *GameList) renderContent() string {
	c.recalcMaxVisible()
	c.ensureVisible()

	itemWidth := c.width - BorderWidth
	if itemWidth < 10 {
		itemWidth = 10
	}

	titleLine := styles.AccentStyle.Render(styles.Truncate(c.title, itemWidth))

	if c.loading && len(c.items) == 0 {
		loadingLine := styles.DimStyle.Render(c.spinner + " Loading...")
		return titleLine + "\n \n" + loadingLine + "\n "
	}

	count := c.ItemCount()
	if count == 0 {
		var msg string
		switch {
		case c.errText != "":
			msg = styles.ErrorStyle.Render(c.errText) + "\n" + styles.DimStyle.Render("press r to retry")
		case c.filterActive && c.filterQuery != "":
			msg = styles.DimStyle.Render("No matches")
		default:
			msg = styles.DimStyle.Render(c.emptyText)
		}
		content := titleLine + "\n \n" + msg + "\n "
		if c.filterActive {
			content += "\n" + c.renderFilterBar(itemWidth)
		}
		return content
	}

	end := min(c.offset+c.maxVisible, count)
	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		idx := c.mapIndex(i)
		lines = append(lines, c.renderItem(idx, i == c.cursor, itemWidth))
	}

	// Always reserve the indicator lines to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	} else if c.hasMore && c.filteredIdx == nil {
		footer = styles.DimStyle.Render("↓ more pages")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer

	switch {
	case c.errText != "":
		content += "\n" + styles.ErrorStyle.Render(styles.Truncate(c.errText+" (r to retry)", itemWidth))
	case c.loadingMore:
		content += "\n" + styles.DimStyle.Render(c.spinner+" Loading more...")
	}

	if c.filterActive {
		content += "\n" + c.renderFilterBar(itemWidth)
	}
	return content
}

func (c *GameList) renderItem(idx int, selected bool, width int) string {
	item := c.items[idx]

	favChar := styles.NotFavoriteChar
	if c.isFavorite != nil && c.isFavorite(item.ID) {
		favChar = styles.FavoriteChar
	}
	pink := styles.Pink

	var badge string
	if c.showBadge {
		badge = " " + styles.Badge(string(classify.Classify(item)))
	}

	title := item.Title
	if title == "" {
		title = fmt.Sprintf("#%s", item.ID)
	}
	title = styles.Truncate(title, width-4-lipgloss.Width(badge))
	if hl := c.highlights[idx]; len(hl) > 0 {
		title = styles.HighlightMatches(title, hl, selected)
	}

	parts := []styles.RowPart{
		{Text: favChar + " ", Foreground: &pink},
		{Text: title},
	}
	if badge != "" {
		parts = append(parts, styles.RowPart{Text: badge})
	}
	return styles.RenderListRow(parts, selected, width)
}

func (c *GameList) renderFilterBar(width int) string {
	c.filterInput.Width = max(width-4, 1)
	if c.filterInput.Focused() {
		return c.filterInput.View()
	}
	return styles.FilterPromptStyle.Render("/ ") + styles.FilterStyle.Render(styles.Truncate(c.filterQuery, width-4))
}
