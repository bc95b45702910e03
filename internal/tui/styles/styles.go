package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Color palette
var (
	DeckPurple = lipgloss.Color("#8B5CF6")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Pink       = lipgloss.Color("#EC4899")
)

// Category badge colors
var CategoryColors = map[string]lipgloss.Color{
	"action":      lipgloss.Color("#FF6B6B"),
	"puzzle":      lipgloss.Color("#54A0FF"),
	"racing":      lipgloss.Color("#FF9F43"),
	"skill":       lipgloss.Color("#1DD1A1"),
	"arcade":      lipgloss.Color("#5F27CD"),
	"educational": lipgloss.Color("#10AC84"),
	"sport":       lipgloss.Color("#2E86DE"),
	"quiz":        lipgloss.Color("#F368E0"),
}

// Borders
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DeckPurple)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(DeckPurple)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Favorite indicator
const (
	FavoriteChar    = "♥"
	NotFavoriteChar = " "
)

// Tab bar styles
var (
	TabStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 2)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(DeckPurple).
			Bold(true).
			Padding(0, 2)

	TabBarStyle = lipgloss.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(DimGray)
)

// Status bar styles
var (
	StatusStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(Red).
				Padding(0, 1)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(DeckPurple)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Spinner style
var SpinnerStyle = lipgloss.NewStyle().Foreground(DeckPurple)

// Filter styles
var (
	FilterStyle = lipgloss.NewStyle().
			Foreground(DeckPurple)

	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(DeckPurple).
				Bold(true)
)

// Match highlight styles for filter results
var (
	MatchHighlightStyle = lipgloss.NewStyle().
				Foreground(DeckPurple).
				Bold(true)

	MatchHighlightSelectedStyle = lipgloss.NewStyle().
					Foreground(DeckPurple).
					Background(SlateLight).
					Bold(true)
)

// Helper functions

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// Badge renders a category badge
func Badge(category string) string {
	color, ok := CategoryColors[category]
	if !ok {
		color = DimGray
	}
	name := category
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return lipgloss.NewStyle().Foreground(color).Render("[" + name + "]")
}

// RowPart represents a part of a row with optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
	Bold       bool
}

// RenderListRow renders a complete list row with uniform background when selected.
// Each part is styled explicitly to avoid ANSI reset code issues.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := SlateLight
	defaultFg := LightGray
	selectedFg := White

	var b strings.Builder
	visibleLen := 0

	for _, part := range parts {
		style := lipgloss.NewStyle().Bold(part.Bold)
		if part.Foreground != nil {
			style = style.Foreground(*part.Foreground)
		} else if selected {
			style = style.Foreground(selectedFg)
		} else {
			style = style.Foreground(defaultFg)
		}
		if selected {
			style = style.Background(bg)
		}
		b.WriteString(style.Render(part.Text))
		visibleLen += lipgloss.Width(part.Text)
	}

	// Pad to fill width (subtract 2 for left/right margin)
	if pad := width - visibleLen - 2; pad > 0 {
		padStyle := lipgloss.NewStyle()
		if selected {
			padStyle = padStyle.Background(bg)
		}
		b.WriteString(padStyle.Render(strings.Repeat(" ", pad)))
	}

	marginStyle := lipgloss.NewStyle()
	if selected {
		marginStyle = marginStyle.Background(bg)
	}
	margin := marginStyle.Render(" ")

	return margin + b.String() + margin
}

// HighlightMatches renders text with the characters at the matched byte
// offsets emphasized
func HighlightMatches(text string, matched []int, selected bool) string {
	if len(matched) == 0 {
		return text
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	hl := MatchHighlightStyle
	if selected {
		hl = MatchHighlightSelectedStyle
	}

	var b strings.Builder
	for i, r := range text {
		if hit[i] {
			b.WriteString(hl.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Modal style for the help overlay
var ModalStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(DeckPurple).
	Padding(1, 2)
