package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/gamedeck/internal/classify"
	"github.com/mmcdole/gamedeck/internal/domain"
	"github.com/mmcdole/gamedeck/internal/tui/styles"
)

// Layout constants for the detail pane
const (
	DetailBorderHeight = 2
	DetailHeaderLines  = 2 // title + blank line
	DetailFooterLines  = 2 // blank line + hint
)

// Detail shows a game's metadata in a scrollable viewport
type Detail struct {
	viewport viewport.Model
	game     *domain.Item
	favorite bool
	loading  bool
	err      error
	spinner  string
	width    int
	height   int
}

// NewDetail creates an empty detail pane
func NewDetail() Detail {
	return Detail{viewport: viewport.New(0, 0)}
}

// SetGame shows a game. The viewport scrolls back to the top when the game changes.
func (d *Detail) SetGame(game *domain.Item, favorite bool) {
	changed := d.game == nil || game == nil || d.game.ID != game.ID
	d.game = game
	d.favorite = favorite
	d.loading = false
	d.err = nil
	d.refresh()
	if changed {
		d.viewport.GotoTop()
	}
}

// Game returns the game on display
func (d Detail) Game() *domain.Item { return d.game }

// SetFavorite updates the favorite marker
func (d *Detail) SetFavorite(favorite bool) {
	d.favorite = favorite
	d.refresh()
}

// SetLoading marks a detail fetch in flight
func (d *Detail) SetLoading(loading bool) {
	d.loading = loading
	if loading {
		d.err = nil
	}
}

// SetError shows a fetch failure
func (d *Detail) SetError(err error) {
	d.loading = false
	d.err = err
}

// SetSpinner sets the current spinner frame
func (d *Detail) SetSpinner(frame string) { d.spinner = frame }

// SetSize updates the pane dimensions
func (d *Detail) SetSize(width, height int) {
	d.width = width
	d.height = height
	frameW := styles.InactiveBorder.GetHorizontalFrameSize()
	d.viewport.Width = max(width-frameW-1, 1)
	d.viewport.Height = max(height-DetailBorderHeight-DetailHeaderLines-DetailFooterLines, 1)
	d.refresh()
}

// Update scrolls the viewport
func (d Detail) Update(msg tea.Msg) (Detail, tea.Cmd) {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

// View renders the pane
func (d Detail) View() string {
	style := styles.ActiveBorder
	contentWidth := max(d.width-3, 10)

	var title string
	if d.game != nil {
		marker := ""
		if d.favorite {
			marker = lipgloss.NewStyle().Foreground(styles.Pink).Render(styles.FavoriteChar) + " "
		}
		title = marker + styles.TitleStyle.Render(styles.Truncate(d.game.Title, contentWidth-2))
	} else {
		title = styles.AccentStyle.Render("Game")
	}

	var body string
	switch {
	case d.loading:
		body = styles.DimStyle.Render(d.spinner + " Loading game...")
	case d.err != nil:
		body = styles.ErrorStyle.Render(styles.Truncate(d.err.Error(), contentWidth))
	default:
		body = d.viewport.View()
	}

	hint := styles.HelpKeyStyle.Render("p") + " " + styles.HelpDescStyle.Render("play") + "  " +
		styles.HelpKeyStyle.Render("f") + " " + styles.HelpDescStyle.Render("favorite") + "  " +
		styles.HelpKeyStyle.Render("esc") + " " + styles.HelpDescStyle.Render("back")

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(d.width-frameW, 0)).
		Height(max(d.height-frameH, 0)).
		Render(title + "\n\n" + body + "\n\n" + hint)
}

func (d *Detail) refresh() {
	if d.game == nil {
		d.viewport.SetContent("")
		return
	}
	d.viewport.SetContent(renderGameBody(*d.game, d.viewport.Width))
}

func renderGameBody(game domain.Item, width int) string {
	var lines []string

	category := classify.Classify(game)
	lines = append(lines, styles.Badge(string(category)))
	lines = append(lines, "")

	lines = append(lines, field("ID", game.ID.String(), width))
	if game.HasThumbnail() {
		lines = append(lines, field("Image", game.Thumbnail, width))
	}
	if embed := game.EmbedURL(); embed != "" {
		lines = append(lines, field("Play", embed, width))
	} else {
		lines = append(lines, styles.DimStyle.Render("No playable URL"))
	}

	if desc := strings.TrimSpace(game.Description); desc != "" {
		lines = append(lines, "")
		wrapped := lipgloss.NewStyle().Width(max(width, 10)).Render(desc)
		lines = append(lines, styles.SubtitleStyle.Render(wrapped))
	}
	return strings.Join(lines, "\n")
}

func field(label, value string, width int) string {
	prefix := label + ": "
	return styles.DimStyle.Render(prefix) + styles.Truncate(value, width-len(prefix))
}
