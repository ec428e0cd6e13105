package components

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

func newTestTable() *TableView {
	tv := NewTableView(theme.DefaultTheme())
	tv.Width = 80
	tv.Height = 10
	tv.SetData(
		[]string{"id", "name"},
		[][]string{{"1", "Ann"}, {"2", "Bob"}, {"3", "Cid"}},
		1, 3, 8,
	)
	return tv
}

func TestTableView_EmptyState(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	if !strings.Contains(tv.View(), "No data") {
		t.Error("Expected empty state message")
	}
}

func TestTableView_Status(t *testing.T) {
	tv := newTestTable()
	view := tv.View()

	if !strings.Contains(view, "Page 2 of 3 · rows 4-6 of 8") {
		t.Errorf("Expected pager status, got:\n%s", view)
	}
	if tv.PageCount() != 3 {
		t.Errorf("Expected 3 pages, got %d", tv.PageCount())
	}

	tv.SetData([]string{"id"}, nil, 0, 3, 0)
	if !strings.Contains(tv.View(), "no rows") {
		t.Error("Expected no rows status")
	}
}

func TestTableView_SortMarkers(t *testing.T) {
	tv := newTestTable()
	tv.SetSorting([]models.SortField{
		{Field: "id", Direction: models.SortDesc},
		{Field: "name", Direction: models.SortAsc},
	})
	view := tv.View()
	if !strings.Contains(view, "▼") || !strings.Contains(view, "▲") {
		t.Errorf("Expected sort markers in header, got:\n%s", view)
	}
}

func TestTableView_Truncation(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	tv.MaxCellWidth = 8
	tv.SetData([]string{"text"}, [][]string{{"日本語のとても長いテキスト"}}, 0, 10, 1)

	if tv.ColumnWidths[0] != 8 {
		t.Fatalf("Expected column width 8, got %d", tv.ColumnWidths[0])
	}

	cell := pad("日本語のとても長いテキスト", 8)
	if w := runewidth.StringWidth(cell); w != 8 {
		t.Errorf("Expected padded width 8, got %d (%q)", w, cell)
	}
	if !strings.HasSuffix(strings.TrimRight(cell, " "), "…") {
		t.Errorf("Expected ellipsis, got %q", cell)
	}

	if got := pad("ab", 5); got != "ab   " {
		t.Errorf("Expected right padding, got %q", got)
	}
}

func TestTableView_MoveSelection(t *testing.T) {
	tv := newTestTable()
	tv.View()

	tv.MoveSelection(1)
	if tv.SelectedRow != 1 {
		t.Errorf("Expected row 1, got %d", tv.SelectedRow)
	}
	tv.MoveSelection(10)
	if tv.SelectedRow != 2 {
		t.Errorf("Expected clamp to last row, got %d", tv.SelectedRow)
	}
	tv.MoveSelection(-10)
	if tv.SelectedRow != 0 {
		t.Errorf("Expected clamp to first row, got %d", tv.SelectedRow)
	}
}

func TestTableView_MoveColumn(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	tv.Width = 30
	tv.Height = 10
	columns := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	tv.SetData(columns, [][]string{{"a", "b", "c", "d", "e"}}, 0, 10, 1)

	tv.MoveColumn(4)
	if tv.SelectedCol != 4 {
		t.Fatalf("Expected column 4, got %d", tv.SelectedCol)
	}
	if tv.LeftCol == 0 {
		t.Error("Expected horizontal scroll to follow the cursor")
	}
	start, end := tv.visibleColumns()
	if tv.SelectedCol < start || tv.SelectedCol >= end {
		t.Errorf("Selected column %d not in visible range [%d,%d)", tv.SelectedCol, start, end)
	}
	if col, ok := tv.SelectedColumn(); !ok || col != "echo" {
		t.Errorf("Expected echo, got %q", col)
	}

	tv.MoveColumn(-10)
	if tv.SelectedCol != 0 || tv.LeftCol != 0 {
		t.Errorf("Expected scroll back to the first column, got col %d left %d", tv.SelectedCol, tv.LeftCol)
	}
}
