package help

import (
	bubbleshelp "github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// KeyMap holds the key bindings of the grid browser
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	ScreenUp    key.Binding
	ScreenDown  key.Binding
	NextPage    key.Binding
	PrevPage    key.Binding
	Sort        key.Binding
	Filter      key.Binding
	ClearFilter key.Binding
	Copy        key.Binding
	Reload      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the built-in bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous column")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
		ScreenUp:    key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "screen up")),
		ScreenDown:  key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "screen down")),
		NextPage:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		PrevPage:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous page")),
		Sort:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort on column")),
		Filter:      key.NewBinding(key.WithKeys("/", "f"), key.WithHelp("/", "filter column")),
		ClearFilter: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy row as JSON")),
		Reload:      key.NewBinding(key.WithKeys("r", "f5"), key.WithHelp("r", "reload")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.PrevPage, k.Sort, k.Filter, k.Copy, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.ScreenUp, k.ScreenDown},
		{k.NextPage, k.PrevPage, k.Sort, k.Filter, k.ClearFilter},
		{k.Copy, k.Reload, k.Help, k.Quit},
	}
}

// Render creates the full help view
func Render(width, height int, keys KeyMap, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	h := bubbleshelp.New()
	h.ShowAll = true
	h.Width = max(width-8, 0)
	h.Styles.FullKey = lipgloss.NewStyle().Foreground(th.Warning)
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(th.Foreground)
	h.Styles.FullSeparator = lipgloss.NewStyle().Foreground(th.Border)

	content := titleStyle.Render("lazygrid - Keyboard Shortcuts") + "\n\n" +
		h.View(keys) + "\n\n" +
		lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 0)).
		Height(max(height-4, 0))

	return boxStyle.Render(content)
}
