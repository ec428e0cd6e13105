package app

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/atotto/clipboard"
	bubbleshelp "github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazygrid/internal/export"
	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/source"
	"github.com/rebeliceyang/lazygrid/internal/ui/components"
	"github.com/rebeliceyang/lazygrid/internal/ui/help"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// Options configures the grid browser
type Options struct {
	Source source.Source
	// Request is the initial request; its fields, filters and page size are kept
	Request  models.DataRequest
	Registry *format.Registry
	Theme    string
	// MaxCellWidth bounds a column, in terminal cells
	MaxCellWidth int
	// Clipboard defaults to the system clipboard
	Clipboard func(string) error
}

// App is the main application model
type App struct {
	state    models.AppState
	src      source.Source
	req      models.DataRequest
	registry *format.Registry
	theme    theme.Theme
	keys     help.KeyMap
	help     bubbleshelp.Model

	tableView   *components.TableView
	filterInput *components.FilterInput

	page    models.DataPage
	loadSeq int
	err     error
	copy    func(string) error
}

// PageLoadedMsg is sent when a load finishes
type PageLoadedMsg struct {
	Seq     int
	Request models.DataRequest
	Page    models.DataPage
	Err     error
}

// New creates a new App instance
func New(opts Options) *App {
	th := theme.GetTheme(opts.Theme)

	src := opts.Source
	if src == nil {
		src = source.NewEmpty()
	}
	registry := opts.Registry
	if registry == nil {
		registry = format.NewRegistry(format.DefaultLocale())
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	tv := components.NewTableView(th)
	if opts.MaxCellWidth > 0 {
		tv.MaxCellWidth = opts.MaxCellWidth
	}
	lang := registry.Locale().Lang
	if lang.PagerPage != "" {
		tv.Labels = components.PagerLabels{Page: lang.PagerPage, Of: lang.PagerOfPages}
	}

	h := bubbleshelp.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.Warning)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Foreground)

	a := &App{
		state:       models.NewAppState(),
		src:         src,
		req:         opts.Request,
		registry:    registry,
		theme:       th,
		keys:        help.DefaultKeyMap(),
		help:        h,
		tableView:   tv,
		filterInput: components.NewFilterInput(th),
		copy:        copyFn,
	}
	a.updateDimensions()
	return a
}

// Request returns the request the next load will use
func (a *App) Request() models.DataRequest {
	return a.req
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.load()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PageLoadedMsg:
		a.handleLoaded(msg)
		return a, nil

	case components.ApplyFilterMsg:
		a.state.ViewMode = models.NormalMode
		a.req.Filters = append(slices.Clone(a.req.Filters), models.FilterGroup{
			Filters: []models.FilterValue{msg.Filter},
		})
		a.req.Page = 0
		return a, a.load()

	case components.CloseFilterMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil

	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updateDimensions()
		return a, nil

	case tea.KeyMsg:
		switch a.state.ViewMode {
		case models.HelpMode:
			if key.Matches(msg, a.keys.Help, a.keys.Quit) || msg.String() == "esc" {
				a.state.ViewMode = models.NormalMode
			}
			return a, nil
		case models.FilterMode:
			var cmd tea.Cmd
			a.filterInput, cmd = a.filterInput.Update(msg)
			return a, cmd
		}
		return a.handleKey(msg)
	}

	if a.state.ViewMode == models.FilterMode {
		var cmd tea.Cmd
		a.filterInput, cmd = a.filterInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.state.Status = ""

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.state.ViewMode = models.HelpMode
	case key.Matches(msg, a.keys.Up):
		a.tableView.MoveSelection(-1)
	case key.Matches(msg, a.keys.Down):
		a.tableView.MoveSelection(1)
	case key.Matches(msg, a.keys.Left):
		a.tableView.MoveColumn(-1)
	case key.Matches(msg, a.keys.Right):
		a.tableView.MoveColumn(1)
	case key.Matches(msg, a.keys.ScreenUp):
		a.tableView.PageUp()
	case key.Matches(msg, a.keys.ScreenDown):
		a.tableView.PageDown()
	case key.Matches(msg, a.keys.NextPage):
		if a.hasNextPage() {
			a.req.Page++
			return a, a.load()
		}
	case key.Matches(msg, a.keys.PrevPage):
		if a.req.Page > 0 {
			a.req.Page--
			return a, a.load()
		}
	case key.Matches(msg, a.keys.Sort):
		if col, ok := a.tableView.SelectedColumn(); ok {
			a.req.Sorting = CycleSort(a.req.Sorting, col)
			a.req.Page = 0
			return a, a.load()
		}
	case key.Matches(msg, a.keys.Filter):
		if col, ok := a.tableView.SelectedColumn(); ok {
			a.filterInput.Open(col)
			a.state.ViewMode = models.FilterMode
			return a, textinput.Blink
		}
	case key.Matches(msg, a.keys.ClearFilter):
		if len(a.req.Filters) > 0 {
			a.req.Filters = nil
			a.req.Page = 0
			return a, a.load()
		}
	case key.Matches(msg, a.keys.Copy):
		a.copySelectedRow()
	case key.Matches(msg, a.keys.Reload):
		return a, a.load()
	}
	return a, nil
}

// CycleSort moves field to the front of sorting and steps its direction
// through asc, desc and unsorted
func CycleSort(sorting []models.SortField, field string) []models.SortField {
	next := models.SortAsc
	rest := make([]models.SortField, 0, len(sorting))
	for _, s := range sorting {
		if s.Field == field {
			if s.Direction == models.SortAsc {
				next = models.SortDesc
			} else {
				next = ""
			}
			continue
		}
		rest = append(rest, s)
	}
	if next == "" {
		return rest
	}
	return append([]models.SortField{{Field: field, Direction: next}}, rest...)
}

func (a *App) hasNextPage() bool {
	if a.req.PageSize == nil {
		return false
	}
	return (a.req.Page+1)*(*a.req.PageSize) < a.page.Total
}

func (a *App) copySelectedRow() {
	row := a.tableView.SelectedRow
	if row < 0 || row >= len(a.page.Items) {
		return
	}
	data, err := json.Marshal(a.page.Items[row])
	if err != nil {
		a.err = fmt.Errorf("failed to encode row: %w", err)
		return
	}
	if err := a.copy(string(data)); err != nil {
		a.err = fmt.Errorf("failed to copy row: %w", err)
		return
	}
	a.state.Status = "Copied row to clipboard"
}

// load starts a load of the current request and returns the command
// delivering its result
func (a *App) load() tea.Cmd {
	a.loadSeq++
	a.state.Loading = true
	seq, req, src := a.loadSeq, a.req, a.src

	return func() tea.Msg {
		res := <-src.Load(context.Background(), req).Fetch()
		return PageLoadedMsg{Seq: seq, Request: req, Page: res.Page, Err: res.Err}
	}
}

func (a *App) handleLoaded(msg PageLoadedMsg) {
	if msg.Seq != a.loadSeq {
		return
	}
	a.state.Loading = false

	if msg.Err != nil {
		a.err = msg.Err
		return
	}
	a.err = nil
	a.page = msg.Page

	columns := export.Columns(msg.Page, msg.Request.Fields)
	types := make(map[string]string, len(msg.Request.Fields))
	for _, f := range msg.Request.Fields {
		types[f.Field] = f.DataType
	}

	rows := make([][]string, len(msg.Page.Items))
	for i, item := range msg.Page.Items {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = a.registry.Format(types[col], item[col])
		}
		rows[i] = cells
	}

	pageSize := len(rows)
	if msg.Request.PageSize != nil {
		pageSize = *msg.Request.PageSize
	}
	a.tableView.SetData(columns, rows, msg.Request.Page, pageSize, msg.Page.Total)
	a.tableView.SetSorting(msg.Request.Sorting)
}

// View implements tea.Model
func (a *App) View() string {
	if a.state.ViewMode == models.HelpMode {
		return help.Render(a.state.Width, a.state.Height, a.keys, a.theme)
	}

	topRight := ""
	if n := len(a.req.Filters); n > 0 {
		topRight = fmt.Sprintf("%d filter(s)", n)
	}
	if a.state.Loading {
		topRight = "loading…"
	}
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(lipgloss.Color("230")).
		Padding(0, 2).
		Render(a.formatStatusBar("lazygrid · "+a.src.Name(), topRight))

	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.theme.Border).
		Width(a.tableView.Width).
		Render(a.tableView.View())

	var bottom string
	switch {
	case a.state.ViewMode == models.FilterMode:
		a.filterInput.Width = a.state.Width
		bottom = a.filterInput.View()
	case a.err != nil:
		bottom = a.bottomBar(lipgloss.NewStyle().Foreground(a.theme.Error).Render("Error: "+a.err.Error()))
	case a.state.Status != "":
		bottom = a.bottomBar(lipgloss.NewStyle().Foreground(a.theme.Success).Render(a.state.Status))
	default:
		a.help.Width = a.state.Width - 4
		bottom = a.bottomBar(a.help.View(a.keys))
	}

	return lipgloss.JoinVertical(lipgloss.Left, topBar, body, bottom)
}

func (a *App) bottomBar(content string) string {
	return lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Padding(0, 2).
		Render(content)
}

// updateDimensions sizes the grid to the window
func (a *App) updateDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}
	// top bar, bottom bar and the grid border
	a.tableView.Width = max(a.state.Width-2, 20)
	a.tableView.Height = max(a.state.Height-4, 5)
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side = 4 total)
	availableWidth := max(a.state.Width-4, 0)

	leftLen := runewidth.StringWidth(left)
	rightLen := runewidth.StringWidth(right)

	if leftLen+rightLen > availableWidth {
		if availableWidth > rightLen {
			return runewidth.Truncate(left, availableWidth-rightLen, "…") + right
		}
		return runewidth.Truncate(left, availableWidth, "…")
	}

	spacing := availableWidth - leftLen - rightLen
	return left + lipgloss.NewStyle().Width(spacing).Render("") + right
}
