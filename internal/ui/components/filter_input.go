package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// ApplyFilterMsg is sent when a filter on one column was entered
type ApplyFilterMsg struct {
	Filter models.FilterValue
}

// CloseFilterMsg is sent when the filter input is dismissed
type CloseFilterMsg struct{}

// inputOperators is the tab order of the operator selector
var inputOperators = []models.FilterOperator{
	models.OpContains,
	models.OpEquals,
	models.OpNotEquals,
	models.OpStartsWith,
	models.OpEndsWith,
	models.OpGreaterThan,
	models.OpGreaterOrEqual,
	models.OpLowerThan,
	models.OpLowerOrEqual,
	models.OpIn,
}

// FilterInput edits a single filter on the selected column
type FilterInput struct {
	Input    textinput.Model
	Field    string
	Theme    theme.Theme
	Width    int
	operator int
}

// NewFilterInput creates a filter input
func NewFilterInput(th theme.Theme) *FilterInput {
	ti := textinput.New()
	ti.Placeholder = "value"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40

	return &FilterInput{
		Input: ti,
		Theme: th,
	}
}

// Open prepares the input for field
func (f *FilterInput) Open(field string) {
	f.Field = field
	f.operator = 0
	f.Input.SetValue("")
	f.Input.Focus()
}

// Operator returns the selected operator
func (f *FilterInput) Operator() models.FilterOperator {
	return inputOperators[f.operator]
}

// CycleOperator selects the next operator
func (f *FilterInput) CycleOperator(delta int) {
	n := len(inputOperators)
	f.operator = ((f.operator+delta)%n + n) % n
}

// Filter builds the filter for the current input
func (f *FilterInput) Filter() models.FilterValue {
	op := f.Operator()
	return models.FilterValue{
		Field:    f.Field,
		Operator: op,
		Value:    ParseInputValue(op, f.Input.Value()),
	}
}

// ParseInputValue converts typed text into a filter value. Text operators
// keep the raw string; the others read numbers, booleans and null, and in
// splits on commas.
func ParseInputValue(op models.FilterOperator, text string) interface{} {
	switch op {
	case models.OpContains, models.OpStartsWith, models.OpEndsWith:
		return text
	case models.OpIn:
		parts := strings.Split(text, ",")
		values := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, scalar(p))
			}
		}
		return values
	}
	return scalar(strings.TrimSpace(text))
}

func scalar(text string) interface{} {
	switch text {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}

// Update handles messages
func (f *FilterInput) Update(msg tea.Msg) (*FilterInput, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab":
			f.CycleOperator(1)
			return f, nil
		case "shift+tab":
			f.CycleOperator(-1)
			return f, nil
		case "enter":
			filter := f.Filter()
			return f, func() tea.Msg {
				return ApplyFilterMsg{Filter: filter}
			}
		case "esc":
			return f, func() tea.Msg {
				return CloseFilterMsg{}
			}
		}
	}

	var cmd tea.Cmd
	f.Input, cmd = f.Input.Update(msg)
	return f, cmd
}

// View renders the filter input
func (f *FilterInput) View() string {
	fieldStyle := lipgloss.NewStyle().Foreground(f.Theme.Info).Bold(true)
	opStyle := lipgloss.NewStyle().Foreground(f.Theme.Warning).Bold(true)

	f.Input.Width = max(f.Width-30, 20)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(f.Theme.BorderFocused).
		Padding(0, 1).
		Width(max(f.Width-2, 20))

	helpStyle := lipgloss.NewStyle().
		Foreground(f.Theme.Muted).
		Italic(true)

	content := fmt.Sprintf("%s %s %s",
		fieldStyle.Render(f.Field),
		opStyle.Render(string(f.Operator())),
		f.Input.View())
	helpText := helpStyle.Render("Tab: operator │ Enter: apply │ Esc: close")

	return boxStyle.Render(content + "\n" + helpText)
}
