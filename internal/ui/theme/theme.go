package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the grid browser
type Theme struct {
	Name string

	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color

	// Chrome
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Grid colors
	TableHeader       lipgloss.Color
	TableHeaderBg     lipgloss.Color
	TableSeparator    lipgloss.Color
	TableRowSelected  lipgloss.Color
	TableCellSelected lipgloss.Color
	SortIndicator     lipgloss.Color
}

// Names lists the built-in themes
func Names() []string {
	return []string{"default", "catppuccin-mocha"}
}

// GetTheme returns a theme by name, falling back to the default theme
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha", "catppuccin":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}
