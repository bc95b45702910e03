package tui

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/gamedeck/internal/config"
	"github.com/mmcdole/gamedeck/internal/domain"
	"github.com/mmcdole/gamedeck/internal/listing"
	"github.com/mmcdole/gamedeck/internal/search"
	"github.com/mmcdole/gamedeck/internal/tui/components"
	"github.com/mmcdole/gamedeck/internal/tui/styles"
)

// Tab is one of the bottom navigation tabs
type Tab int

const (
	TabHome Tab = iota
	TabCategories
	TabSearch
	TabFavorites
)

var tabNames = []string{"Home", "Categories", "Search", "Favorites"}

// ParseTab maps a ui.default_tab value to a Tab
func ParseTab(name string) Tab {
	switch name {
	case config.TabCategories:
		return TabCategories
	case config.TabSearch:
		return TabSearch
	case config.TabFavorites:
		return TabFavorites
	default:
		return TabHome
	}
}

// Layout
const (
	// Tab bar (border + labels) and status line
	ChromeHeight = 3

	// Rows from the end of a list at which the next page is requested
	PrefetchThreshold = 5

	// Search box line plus spacing on the search tab
	SearchBoxHeight = 2

	// Buffered store events between Update calls
	eventBuffer = 64
)

// Deps are the services the model drives
type Deps struct {
	Client    domain.CatalogClient
	Home      PageLoader
	Category  PageLoader
	Search    PageLoader
	Favorites FavoriteToggler
	Player    GamePlayer

	// SubscribeList and SubscribeFavorites attach the model's observer.
	// Each returns an unsubscribe func.
	SubscribeList      func(view ViewID, fn func(listing.State)) func()
	SubscribeFavorites func(fn func([]domain.Item)) func()

	SearchConfig      config.SearchConfig
	DefaultTab        string
	ShowCategoryBadge bool

	Logger *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	deps   Deps
	logger *slog.Logger
	keys   KeyMap

	events      chan tea.Msg
	unsubscribe []func()

	// Layout
	width  int
	height int
	ready  bool

	// Navigation
	tab        Tab
	showHelp   bool
	showDetail bool
	inCategory bool
	category   domain.Item

	// Lists
	homeList      *components.GameList
	categoryList  *components.GameList
	categoryGames *components.GameList
	searchList    *components.GameList
	favoritesList *components.GameList

	// Search box
	searchInput textinput.Model
	searchSeq   int

	detail  components.Detail
	spinner spinner.Model

	// Status line
	status    string
	statusErr bool
	statusSeq int
}

// NewModel creates the application model and subscribes it to the stores
func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	events := make(chan tea.Msg, eventBuffer)
	observer := NewChannelObserver(events)

	var unsubscribe []func()
	if deps.SubscribeList != nil {
		for _, view := range []ViewID{ViewHome, ViewCategory, ViewSearch} {
			unsubscribe = append(unsubscribe, deps.SubscribeList(view, observer.OnList(view)))
		}
	}
	if deps.SubscribeFavorites != nil {
		unsubscribe = append(unsubscribe, deps.SubscribeFavorites(observer.OnFavorites))
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	ti := textinput.New()
	ti.Placeholder = fmt.Sprintf("search games (at least %d characters)", max(deps.SearchConfig.MinQueryLength, 1))
	ti.Prompt = "Search: "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	m := Model{
		deps:          deps,
		logger:        logger,
		keys:          DefaultKeyMap(),
		events:        events,
		unsubscribe:   unsubscribe,
		tab:           ParseTab(deps.DefaultTab),
		homeList:      components.NewGameList("All games", components.FilterFuzzy),
		categoryList:  components.NewGameList("Categories", components.FilterFuzzy),
		categoryGames: components.NewGameList("", components.FilterFuzzy),
		searchList:    components.NewGameList("Search results", components.FilterFuzzy),
		favoritesList: components.NewGameList("Favorites", components.FilterRanked),
		searchInput:   ti,
		detail:        components.NewDetail(),
		spinner:       sp,
	}

	isFavorite := func(id domain.ItemID) bool {
		return deps.Favorites != nil && deps.Favorites.Contains(id)
	}
	for _, l := range []*components.GameList{m.homeList, m.categoryGames, m.searchList, m.favoritesList} {
		l.SetFavoriteFunc(isFavorite)
		l.SetShowBadge(deps.ShowCategoryBadge)
	}
	m.categoryList.SetEmptyText("No categories")
	m.searchList.SetEmptyText("Type a query to search")
	m.favoritesList.SetEmptyText("No favorites yet (press f on a game)")

	m.syncFavorites()
	m.focusTab(m.tab)
	return m
}

// Close detaches the model from the stores
func (m Model) Close() {
	for _, unsub := range m.unsubscribe {
		unsub()
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		WaitForEventCmd(m.events),
		LoadCategoriesCmd(m.deps.Client),
		LoadFirstPageCmd(m.deps.Home, ViewHome, domain.AllGames()),
	}
	if m.tab == TabSearch {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		frame := m.spinner.View()
		for _, l := range m.lists() {
			l.SetSpinner(frame)
		}
		m.detail.SetSpinner(frame)
		return m, cmd

	case ListChangedMsg:
		m.syncLists()
		return m, tea.Batch(WaitForEventCmd(m.events), m.maybeLoadMore())

	case FavoritesChangedMsg:
		m.syncFavorites()
		return m, WaitForEventCmd(m.events)

	case LoadFinishedMsg:
		m.syncLists()
		if msg.Err != nil {
			m.logger.Warn("page load failed", "view", msg.View.String(), "error", msg.Err)
			return m, m.setStatus(describeError(msg.Err), true)
		}
		return m, m.maybeLoadMore()

	case CategoriesLoadedMsg:
		m.categoryList.SetItems(msg.Categories)
		return m, nil

	case GameDetailMsg:
		return m.handleGameDetail(msg)

	case PlayStartedMsg:
		return m, m.setStatus("Opened "+msg.Game.Title+" in browser", false)

	case FavoriteToggledMsg:
		m.syncFavorites()
		verb := "Removed from favorites: "
		if msg.On {
			verb = "Added to favorites: "
		}
		return m, m.setStatus(verb+msg.Item.Title, false)

	case SearchDebounceMsg:
		if msg.Seq != m.searchSeq {
			return m, nil
		}
		return m, m.runSearch(msg.Query)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case ErrMsg:
		m.logger.Error("operation failed", "context", msg.Context, "error", msg.Err)
		// Favorite markers re-read the durable state
		m.syncFavorites()
		return m, m.setStatus(msg.Context+": "+describeError(msg.Err), true)
	}

	// Non-key messages for the search box (cursor blink)
	if m.tab == TabSearch && m.searchInput.Focused() {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// Search box has focus: it owns every key except tab switching
	if m.tab == TabSearch && m.searchInput.Focused() {
		return m.handleSearchInput(msg)
	}

	list, _, _ := m.activeList()

	// In-list filter is being typed
	if !m.showDetail && list != nil && list.IsFilterTyping() {
		_, cmd := list.Update(msg)
		return m, cmd
	}

	if m.showDetail {
		return m.handleDetailKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.TabHome):
		return m, m.switchTab(TabHome)
	case key.Matches(msg, m.keys.TabCategories):
		return m, m.switchTab(TabCategories)
	case key.Matches(msg, m.keys.TabSearch):
		return m, m.switchTab(TabSearch)
	case key.Matches(msg, m.keys.TabFavorites):
		return m, m.switchTab(TabFavorites)
	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTab((m.tab + 1) % Tab(len(tabNames)))
	case key.Matches(msg, m.keys.PrevTab):
		return m, m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshActive()
	case key.Matches(msg, m.keys.Favorite):
		return m, m.toggleSelectedFavorite()
	case key.Matches(msg, m.keys.Play):
		return m, m.playSelected()
	case key.Matches(msg, m.keys.Open):
		return m.openSelected()
	case key.Matches(msg, m.keys.Back):
		if list != nil && list.IsFiltering() {
			list.ClearFilter()
			return m, nil
		}
		if m.tab == TabCategories && m.inCategory {
			m.leaveCategory()
		}
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		if m.tab == TabSearch {
			m.searchInput.Focus()
			return m, textinput.Blink
		}
		if list != nil {
			list.ToggleFilter()
		}
		return m, nil
	}

	if list == nil {
		return m, nil
	}
	_, cmd := list.Update(msg)
	return m, tea.Batch(cmd, m.maybeLoadMore())
}

func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextTab):
		m.searchInput.Blur()
		return m, m.switchTab(TabFavorites)
	case key.Matches(msg, m.keys.PrevTab):
		m.searchInput.Blur()
		return m, m.switchTab(TabCategories)
	case msg.Type == tea.KeyEsc, msg.Type == tea.KeyDown:
		m.searchInput.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		// Search now instead of waiting out the debounce
		m.searchInput.Blur()
		m.searchSeq++
		return m, m.runSearch(m.searchInput.Value())
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() == before {
		return m, cmd
	}
	m.searchSeq++
	return m, tea.Batch(cmd, SearchDebounceCmd(m.searchSeq, m.searchInput.Value(), m.deps.SearchConfig.Debounce))
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	game := m.detail.Game()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.showDetail = false
		return m, nil
	case key.Matches(msg, m.keys.Play):
		if game != nil {
			return m, PlayCmd(m.deps.Player, m.deps.Client, game.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Favorite):
		if game != nil {
			return m, ToggleFavoriteCmd(m.deps.Favorites, *game)
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if game != nil {
			m.detail.SetLoading(true)
			return m, LoadGameCmd(m.deps.Client, game.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) handleGameDetail(msg GameDetailMsg) (tea.Model, tea.Cmd) {
	game := m.detail.Game()
	if !m.showDetail || game == nil || game.ID != msg.ID {
		return m, nil
	}
	if msg.Err != nil {
		m.logger.Warn("game detail failed", "id", msg.ID.String(), "error", msg.Err)
		m.detail.SetError(msg.Err)
		return m, nil
	}
	m.detail.SetGame(msg.Game, m.isFavorite(msg.Game.ID))
	return m, nil
}

// Navigation

func (m *Model) switchTab(tab Tab) tea.Cmd {
	m.showDetail = false
	m.focusTab(tab)
	if tab == TabSearch && m.searchInput.Focused() {
		return textinput.Blink
	}
	return nil
}

func (m *Model) focusTab(tab Tab) {
	m.tab = tab
	for _, l := range m.lists() {
		l.SetFocused(false)
	}
	if list, _, _ := m.activeList(); list != nil {
		list.SetFocused(true)
	}
	if tab == TabSearch && len(m.searchList.Items()) == 0 {
		m.searchInput.Focus()
	} else if tab != TabSearch {
		m.searchInput.Blur()
	}
}

func (m Model) openSelected() (tea.Model, tea.Cmd) {
	list, _, _ := m.activeList()
	if list == nil {
		return m, nil
	}
	item, ok := list.Selected()
	if !ok {
		return m, nil
	}

	if m.tab == TabCategories && !m.inCategory {
		return m, m.enterCategory(item)
	}

	m.showDetail = true
	m.detail.SetGame(&item, m.isFavorite(item.ID))
	m.detail.SetLoading(true)
	return m, LoadGameCmd(m.deps.Client, item.ID)
}

func (m *Model) enterCategory(category domain.Item) tea.Cmd {
	m.inCategory = true
	m.category = category
	m.categoryList.SetFocused(false)
	m.categoryGames.ClearFilter()
	m.categoryGames.SetTitle(category.Title)
	m.categoryGames.SetFocused(true)
	return LoadFirstPageCmd(m.deps.Category, ViewCategory, domain.ByCategory(category.ID))
}

func (m *Model) leaveCategory() {
	m.inCategory = false
	m.categoryGames.SetFocused(false)
	m.categoryList.SetFocused(true)
}

func (m *Model) refreshActive() tea.Cmd {
	switch m.tab {
	case TabCategories:
		if !m.inCategory {
			return LoadCategoriesCmd(m.deps.Client)
		}
	case TabFavorites:
		m.syncFavorites()
		return nil
	case TabSearch:
		if m.deps.Search != nil && m.deps.Search.State().Filter.Query == "" {
			return nil
		}
	}

	_, store, view := m.activeList()
	if store == nil {
		return nil
	}
	if store.State().Status == listing.StatusError {
		return RetryCmd(store, view)
	}
	return RefreshCmd(store, view)
}

func (m *Model) toggleSelectedFavorite() tea.Cmd {
	if m.tab == TabCategories && !m.inCategory {
		return nil
	}
	list, _, _ := m.activeList()
	if list == nil {
		return nil
	}
	item, ok := list.Selected()
	if !ok {
		return nil
	}
	return ToggleFavoriteCmd(m.deps.Favorites, item)
}

func (m *Model) playSelected() tea.Cmd {
	if m.tab == TabCategories && !m.inCategory {
		return nil
	}
	list, _, _ := m.activeList()
	if list == nil {
		return nil
	}
	item, ok := list.Selected()
	if !ok {
		return nil
	}
	return tea.Batch(
		m.setStatus("Opening "+item.Title+"...", false),
		PlayCmd(m.deps.Player, m.deps.Client, item.ID),
	)
}

// runSearch issues query on the search list, or clears the list when the
// query is too short
func (m *Model) runSearch(query string) tea.Cmd {
	q, err := search.ValidateQuery(query, m.deps.SearchConfig.MinQueryLength)
	if err != nil {
		m.deps.Search.Reset(domain.BySearch(""))
		if q != "" {
			m.searchList.SetEmptyText(fmt.Sprintf("Type at least %d characters", m.deps.SearchConfig.MinQueryLength))
		} else {
			m.searchList.SetEmptyText("Type a query to search")
		}
		return nil
	}

	st := m.deps.Search.State()
	if st.Filter.Kind == domain.FilterSearch && st.Filter.Query == q && st.Status != listing.StatusError {
		return nil
	}
	m.searchList.ClearFilter()
	m.searchList.SetEmptyText("No games match " + q)
	m.searchList.SetTitle("Results for " + q)
	return LoadFirstPageCmd(m.deps.Search, ViewSearch, domain.BySearch(q))
}

// maybeLoadMore requests the next page when the cursor nears the end of a
// paged list
func (m *Model) maybeLoadMore() tea.Cmd {
	list, store, view := m.activeList()
	if list == nil || store == nil || m.showDetail {
		return nil
	}
	st := store.State()
	if !st.HasMore() || st.Status != listing.StatusIdle {
		return nil
	}
	if !list.NearEnd(PrefetchThreshold) {
		return nil
	}
	return LoadNextPageCmd(store, view)
}

// activeList returns the list on screen and, for paged lists, its store
func (m *Model) activeList() (*components.GameList, PageLoader, ViewID) {
	switch m.tab {
	case TabCategories:
		if m.inCategory {
			return m.categoryGames, m.deps.Category, ViewCategory
		}
		return m.categoryList, nil, ViewCategory
	case TabSearch:
		return m.searchList, m.deps.Search, ViewSearch
	case TabFavorites:
		return m.favoritesList, nil, ViewHome
	default:
		return m.homeList, m.deps.Home, ViewHome
	}
}

func (m *Model) lists() []*components.GameList {
	return []*components.GameList{m.homeList, m.categoryList, m.categoryGames, m.searchList, m.favoritesList}
}

// Store sync

func (m *Model) syncLists() {
	syncList(m.homeList, m.deps.Home)
	syncList(m.categoryGames, m.deps.Category)
	syncList(m.searchList, m.deps.Search)
}

func syncList(list *components.GameList, store PageLoader) {
	if store == nil {
		return
	}
	st := store.State()
	list.SetItems(st.Items)
	list.SetLoading(st.Status == listing.StatusLoadingFirst || st.Status == listing.StatusRefreshing)
	list.SetLoadingMore(st.Status == listing.StatusLoadingMore)
	list.SetHasMore(st.HasMore())
	if st.Status == listing.StatusError && st.Err != nil {
		list.SetError(describeError(st.Err))
	} else {
		list.SetError("")
	}
}

func (m *Model) syncFavorites() {
	if m.deps.Favorites == nil {
		return
	}
	m.favoritesList.SetItems(m.deps.Favorites.List())
	if game := m.detail.Game(); game != nil {
		m.detail.SetFavorite(m.isFavorite(game.ID))
	}
}

func (m *Model) isFavorite(id domain.ItemID) bool {
	return m.deps.Favorites != nil && m.deps.Favorites.Contains(id)
}

// Status line

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusErr = isErr
	return ClearStatusCmd(m.statusSeq)
}

// describeError turns an error into a short status line
func describeError(err error) string {
	var netErr *domain.NetworkError
	switch {
	case errors.Is(err, domain.ErrNoEmbedURL):
		return "this game has no playable URL"
	case errors.Is(err, domain.ErrGameNotFound):
		return "game not found"
	case errors.Is(err, domain.ErrStorage):
		return "could not save: " + err.Error()
	case errors.As(err, &netErr):
		if netErr.StatusCode > 0 {
			return fmt.Sprintf("server error (HTTP %d)", netErr.StatusCode)
		}
		return "network unavailable"
	default:
		return err.Error()
	}
}

// Layout

func (m *Model) updateLayout() {
	contentHeight := max(m.height-ChromeHeight, 3)
	for _, l := range m.lists() {
		l.SetSize(m.width, contentHeight)
	}
	m.searchList.SetSize(m.width, max(contentHeight-SearchBoxHeight, 3))
	m.searchInput.Width = max(m.width-len(m.searchInput.Prompt)-2, 1)
	m.detail.SetSize(m.width, contentHeight)
}
