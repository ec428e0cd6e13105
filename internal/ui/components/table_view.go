package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

const (
	minColumnWidth     = 6
	defaultMaxColWidth = 40
	// columnGap is the width of " │ " between cells
	columnGap = 3
)

// PagerLabels are the words of the status line
type PagerLabels struct {
	Page string
	Of   string
}

// TableView displays one page of rows with a row and a column cursor
type TableView struct {
	Columns []string
	Rows    [][]string
	Width   int
	Height  int
	Theme   theme.Theme
	Labels  PagerLabels

	// MaxCellWidth bounds a column, in terminal cells
	MaxCellWidth int

	// Scrolling state
	TopRow      int
	VisibleRows int
	SelectedRow int
	LeftCol     int
	SelectedCol int

	// Paging state of the page on screen
	Page      int
	PageSize  int
	TotalRows int

	sorting      map[string]models.SortDirection
	ColumnWidths []int
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{
		Columns:      []string{},
		Rows:         [][]string{},
		Theme:        th,
		Labels:       PagerLabels{Page: "Page", Of: "of"},
		MaxCellWidth: defaultMaxColWidth,
		sorting:      map[string]models.SortDirection{},
	}
}

// SetData replaces the rows on screen and resets the row cursor
func (tv *TableView) SetData(columns []string, rows [][]string, page, pageSize, totalRows int) {
	tv.Columns = columns
	tv.Rows = rows
	tv.Page = page
	tv.PageSize = pageSize
	tv.TotalRows = totalRows
	tv.TopRow = 0
	tv.SelectedRow = 0
	if tv.SelectedCol >= len(columns) {
		tv.SelectedCol = 0
		tv.LeftCol = 0
	}
	tv.calculateColumnWidths()
}

// SetSorting marks the sorted columns in the header
func (tv *TableView) SetSorting(sorting []models.SortField) {
	tv.sorting = make(map[string]models.SortDirection, len(sorting))
	for _, s := range sorting {
		tv.sorting[s.Field] = s.Direction
	}
}

// SelectedColumn returns the name of the column under the cursor
func (tv *TableView) SelectedColumn() (string, bool) {
	if tv.SelectedCol < 0 || tv.SelectedCol >= len(tv.Columns) {
		return "", false
	}
	return tv.Columns[tv.SelectedCol], true
}

// PageCount returns the number of pages of the current result
func (tv *TableView) PageCount() int {
	if tv.PageSize <= 0 || tv.TotalRows == 0 {
		return 1
	}
	return (tv.TotalRows + tv.PageSize - 1) / tv.PageSize
}

func (tv *TableView) calculateColumnWidths() {
	tv.ColumnWidths = make([]int, len(tv.Columns))

	for i, col := range tv.Columns {
		// room for the sort marker
		tv.ColumnWidths[i] = runewidth.StringWidth(col) + 2
	}

	for _, row := range tv.Rows {
		for i, cell := range row {
			if i < len(tv.ColumnWidths) {
				if w := runewidth.StringWidth(cell); w > tv.ColumnWidths[i] {
					tv.ColumnWidths[i] = w
				}
			}
		}
	}

	maxWidth := tv.MaxCellWidth
	if maxWidth <= 0 {
		maxWidth = defaultMaxColWidth
	}
	for i := range tv.ColumnWidths {
		tv.ColumnWidths[i] = min(max(tv.ColumnWidths[i], minColumnWidth), maxWidth)
	}
}

// visibleColumns returns the half-open range of columns that fit the width
func (tv *TableView) visibleColumns() (int, int) {
	if tv.Width <= 0 {
		return tv.LeftCol, len(tv.Columns)
	}
	used := 0
	end := tv.LeftCol
	for end < len(tv.Columns) {
		w := tv.ColumnWidths[end]
		if end > tv.LeftCol {
			w += columnGap
		}
		if used+w > tv.Width-2 && end > tv.LeftCol {
			break
		}
		used += w
		end++
	}
	return tv.LeftCol, end
}

// View renders the table
func (tv *TableView) View() string {
	if len(tv.Columns) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render("No data")
	}

	var b strings.Builder

	start, end := tv.visibleColumns()
	b.WriteString(tv.renderHeader(start, end))
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator(start, end))
	b.WriteString("\n")

	// Header + separator + status
	tv.VisibleRows = max(tv.Height-3, 1)

	endRow := min(tv.TopRow+tv.VisibleRows, len(tv.Rows))
	for i := tv.TopRow; i < endRow; i++ {
		b.WriteString(tv.renderRow(tv.Rows[i], i == tv.SelectedRow, start, end))
		b.WriteString("\n")
	}
	for i := endRow - tv.TopRow; i < tv.VisibleRows; i++ {
		b.WriteString("\n")
	}

	b.WriteString(tv.renderStatus())
	return b.String()
}

func (tv *TableView) renderHeader(start, end int) string {
	markStyle := lipgloss.NewStyle().Foreground(tv.Theme.SortIndicator).Background(tv.Theme.TableHeaderBg).Bold(true)
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Background(tv.Theme.TableHeaderBg)

	var parts []string
	for i := start; i < end; i++ {
		col := tv.Columns[i]
		mark := ""
		switch tv.sorting[col] {
		case models.SortAsc:
			mark = " ▲"
		case models.SortDesc:
			mark = " ▼"
		}
		width := tv.ColumnWidths[i]
		label := pad(col, width-runewidth.StringWidth(mark))
		style := headerStyle
		if i == tv.SelectedCol {
			style = style.Underline(true)
		}
		parts = append(parts, style.Render(label)+markStyle.Render(mark))
	}
	sep := headerStyle.Render(" │ ")
	return headerStyle.Render(" ") + strings.Join(parts, sep) + headerStyle.Render(" ")
}

func (tv *TableView) renderSeparator(start, end int) string {
	var parts []string
	for i := start; i < end; i++ {
		parts = append(parts, strings.Repeat("─", tv.ColumnWidths[i]))
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.TableSeparator).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(row []string, selected bool, start, end int) string {
	rowStyle := lipgloss.NewStyle()
	if selected {
		rowStyle = rowStyle.Background(tv.Theme.TableRowSelected).Foreground(lipgloss.Color("15"))
	}
	cellStyle := rowStyle.Bold(true).Background(tv.Theme.TableCellSelected)

	var parts []string
	for i := start; i < end; i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		text := pad(cell, tv.ColumnWidths[i])
		if selected && i == tv.SelectedCol {
			parts = append(parts, cellStyle.Render(text))
		} else {
			parts = append(parts, rowStyle.Render(text))
		}
	}
	sep := rowStyle.Render(" │ ")
	return rowStyle.Render(" ") + strings.Join(parts, sep) + rowStyle.Render(" ")
}

func (tv *TableView) renderStatus() string {
	style := lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true)
	if tv.TotalRows == 0 || len(tv.Rows) == 0 {
		return style.Render(fmt.Sprintf(" %s %d %s %d · no rows", tv.Labels.Page, tv.Page+1, tv.Labels.Of, tv.PageCount()))
	}

	first := tv.Page*tv.PageSize + 1
	if tv.PageSize <= 0 {
		first = 1
	}
	last := first + len(tv.Rows) - 1
	return style.Render(fmt.Sprintf(" %s %d %s %d · rows %d-%d of %d",
		tv.Labels.Page, tv.Page+1, tv.Labels.Of, tv.PageCount(), first, last, tv.TotalRows))
}

// pad truncates or right-fills s to exactly width terminal cells
func pad(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// MoveSelection moves the row cursor up or down
func (tv *TableView) MoveSelection(delta int) {
	if len(tv.Rows) == 0 {
		return
	}
	tv.SelectedRow = min(max(tv.SelectedRow+delta, 0), len(tv.Rows)-1)

	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}

// MoveColumn moves the column cursor left or right, scrolling horizontally
func (tv *TableView) MoveColumn(delta int) {
	if len(tv.Columns) == 0 {
		return
	}
	tv.SelectedCol = min(max(tv.SelectedCol+delta, 0), len(tv.Columns)-1)

	if tv.SelectedCol < tv.LeftCol {
		tv.LeftCol = tv.SelectedCol
	}
	for {
		_, end := tv.visibleColumns()
		if tv.SelectedCol < end || tv.LeftCol >= tv.SelectedCol {
			break
		}
		tv.LeftCol++
	}
}

// PageUp moves the row cursor one screen up
func (tv *TableView) PageUp() {
	tv.SelectedRow = max(tv.SelectedRow-tv.VisibleRows, 0)
	tv.TopRow = tv.SelectedRow
}

// PageDown moves the row cursor one screen down
func (tv *TableView) PageDown() {
	if len(tv.Rows) == 0 {
		return
	}
	tv.SelectedRow = min(tv.SelectedRow+tv.VisibleRows, len(tv.Rows)-1)
	tv.TopRow = tv.SelectedRow
	if tv.TopRow+tv.VisibleRows > len(tv.Rows) {
		tv.TopRow = max(len(tv.Rows)-tv.VisibleRows, 0)
	}
}
