package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/gamedeck/internal/tui/styles"
)

// RenderTabBar renders the bottom tab strip. Tabs are numbered from 1 so the
// labels match their shortcut keys.
func RenderTabBar(tabs []string, active, width int) string {
	rendered := make([]string, len(tabs))
	for i, name := range tabs {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == active {
			rendered[i] = styles.ActiveTabStyle.Render(label)
		} else {
			rendered[i] = styles.TabStyle.Render(label)
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	return styles.TabBarStyle.Width(max(width, 0)).Render(row)
}
