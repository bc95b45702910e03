package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/gamedeck/internal/tui/components"
	"github.com/mmcdole/gamedeck/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var content string
	switch {
	case m.showDetail:
		content = m.detail.View()
	case m.tab == TabSearch:
		content = m.renderSearchTab()
	default:
		list, _, _ := m.activeList()
		content = list.View()
	}

	tabs := components.RenderTabBar(tabNames, int(m.tab), m.width)
	return lipgloss.JoinVertical(lipgloss.Left, content, tabs, m.renderFooter())
}

func (m Model) renderSearchTab() string {
	box := m.searchInput.View()
	if !m.searchInput.Focused() {
		box = styles.DimStyle.Render(m.searchInput.Prompt) + styles.FilterStyle.Render(m.searchInput.Value())
		if m.searchInput.Value() == "" {
			box += styles.DimStyle.Render("press / to type")
		}
	}
	return " " + box + "\n\n" + m.searchList.View()
}

// renderFooter renders the status line: message on the left, hints on the right
func (m Model) renderFooter() string {
	var left string
	if m.status != "" {
		if m.statusErr {
			left = styles.StatusErrorStyle.Render(m.status)
		} else {
			left = styles.StatusStyle.Render(m.status)
		}
	}

	var hints []key.Binding
	switch {
	case m.showDetail:
		hints = []key.Binding{m.keys.Play, m.keys.Favorite, m.keys.Back}
	case m.tab == TabCategories && !m.inCategory:
		hints = []key.Binding{m.keys.Open, m.keys.Refresh}
	default:
		hints = []key.Binding{m.keys.Open, m.keys.Play, m.keys.Favorite}
	}
	hints = append(hints, m.keys.Help)
	right := renderHints(hints)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return styles.Truncate(left, m.width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func renderHints(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ") + " "
}

// renderHelp renders the help screen from the key map
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("gamedeck") + "\n")

	sections := append(m.keys.HelpSections(), []key.Binding{
		components.ListKeys.Up, components.ListKeys.Down,
		components.ListKeys.Home, components.ListKeys.End,
		components.ListKeys.HalfUp, components.ListKeys.HalfDown,
		components.ListKeys.PageUp, components.ListKeys.PageDown,
	})
	titles := []string{"TABS", "ACTIONS", "NAVIGATION"}
	for i, section := range sections {
		b.WriteString("\n" + styles.AccentStyle.Render(titles[i]) + "\n")
		for _, binding := range section {
			h := binding.Help()
			b.WriteString("  " + styles.HelpKeyStyle.Render(padRight(h.Key, 10)) + styles.HelpDescStyle.Render(h.Desc) + "\n")
		}
	}
	b.WriteString("\n" + styles.DimStyle.Render("Press any key to return..."))

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(b.String()))
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s + " "
}
