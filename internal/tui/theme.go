package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the live run view.
type Theme struct {
	TextPrimary lipgloss.Color
	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color

	Border        lipgloss.Color
	BorderFocused lipgloss.Color

	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
	Purple  lipgloss.Color

	Running lipgloss.Color
}

// DefaultTheme is a Tokyo Night style dark palette.
var DefaultTheme = Theme{
	TextPrimary: lipgloss.Color("#c0caf5"),
	TextDim:     lipgloss.Color("#565f89"),
	TextMuted:   lipgloss.Color("#414868"),

	Border:        lipgloss.Color("#414868"),
	BorderFocused: lipgloss.Color("#7aa2f7"),

	Accent:  lipgloss.Color("#7aa2f7"),
	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7dcfff"),
	Purple:  lipgloss.Color("#bb9af7"),

	Running: lipgloss.Color("#e0af68"),
}

// Styles are the lipgloss styles built from a Theme.
type Styles struct {
	Base   lipgloss.Style
	Dim    lipgloss.Style
	Muted  lipgloss.Style
	Bold   lipgloss.Style
	Title  lipgloss.Style
	Header lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Running lipgloss.Style

	// frame directions
	Tx lipgloss.Style
	Rx lipgloss.Style

	KeyBinding lipgloss.Style
	KeyHint    lipgloss.Style

	Box        lipgloss.Style
	BoxFocused lipgloss.Style

	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style
}

// NewStyles builds Styles from t.
func NewStyles(t Theme) Styles {
	return Styles{
		Base:  lipgloss.NewStyle().Foreground(t.TextPrimary),
		Dim:   lipgloss.NewStyle().Foreground(t.TextDim),
		Muted: lipgloss.NewStyle().Foreground(t.TextMuted),
		Bold:  lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),

		Success: lipgloss.NewStyle().Foreground(t.Success),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Foreground(t.Error),
		Info:    lipgloss.NewStyle().Foreground(t.Info),
		Running: lipgloss.NewStyle().Foreground(t.Running).Bold(true),

		Tx: lipgloss.NewStyle().Foreground(t.Purple),
		Rx: lipgloss.NewStyle().Foreground(t.Info),

		KeyBinding: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),
		KeyHint: lipgloss.NewStyle().
			Foreground(t.TextDim),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		BoxFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocused).
			Padding(0, 1),

		ProgressFilled: lipgloss.NewStyle().Foreground(t.Accent),
		ProgressEmpty:  lipgloss.NewStyle().Foreground(t.TextMuted),
	}
}

// DefaultStyles uses DefaultTheme.
var DefaultStyles = NewStyles(DefaultTheme)

// StatusIcon returns a colored status dot.
func StatusIcon(status string, s Styles) string {
	switch status {
	case "completed", "ok":
		return s.Success.Render("●")
	case "failed", "error":
		return s.Error.Render("●")
	case "warning":
		return s.Warning.Render("●")
	case "running":
		return s.Running.Render("●")
	default:
		return s.Dim.Render("○")
	}
}
