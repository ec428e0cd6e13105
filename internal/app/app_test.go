package app

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/source"
	"github.com/rebeliceyang/lazygrid/internal/ui/components"
)

func testRows() []models.Row {
	return []models.Row{
		{"name": "Ann", "age": 31},
		{"name": "Bob", "age": 25},
		{"name": "Cid", "age": 42},
		{"name": "Dee", "age": 19},
		{"name": "Eve", "age": 27},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into the app
func run(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("Expected a command")
	}
	a.Update(cmd())
}

func newTestApp(t *testing.T, copied *string) *App {
	t.Helper()
	a := New(Options{
		Source:  source.NewLocal(testRows()),
		Request: models.DataRequest{PageSize: models.PageSize(2)},
		Clipboard: func(s string) error {
			if copied != nil {
				*copied = s
			}
			return nil
		},
	})
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	run(t, a, a.Init())
	return a
}

func TestApp_InitialLoad(t *testing.T) {
	a := newTestApp(t, nil)

	if a.state.Loading {
		t.Error("Expected loading to be finished")
	}
	if len(a.tableView.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(a.tableView.Rows))
	}
	if a.tableView.TotalRows != 5 {
		t.Errorf("Expected total 5, got %d", a.tableView.TotalRows)
	}
	if got := strings.Join(a.tableView.Columns, ","); got != "age,name" {
		t.Errorf("Expected columns age,name, got %s", got)
	}
	if a.tableView.Rows[0][1] != "Ann" {
		t.Errorf("Expected first row Ann, got %s", a.tableView.Rows[0][1])
	}
}

func TestApp_Paging(t *testing.T) {
	a := newTestApp(t, nil)

	_, cmd := a.Update(keyMsg("n"))
	run(t, a, cmd)
	if a.req.Page != 1 || a.tableView.Rows[0][1] != "Cid" {
		t.Fatalf("Expected page 1 starting at Cid, got page %d row %v", a.req.Page, a.tableView.Rows[0])
	}

	_, cmd = a.Update(keyMsg("n"))
	run(t, a, cmd)
	if len(a.tableView.Rows) != 1 || a.tableView.Rows[0][1] != "Eve" {
		t.Fatalf("Expected last page with Eve, got %v", a.tableView.Rows)
	}

	// no page after the last one
	if _, cmd = a.Update(keyMsg("n")); cmd != nil {
		t.Error("Expected no load past the last page")
	}

	_, cmd = a.Update(keyMsg("p"))
	run(t, a, cmd)
	if a.req.Page != 1 {
		t.Errorf("Expected page 1, got %d", a.req.Page)
	}
}

func TestApp_Sort(t *testing.T) {
	a := newTestApp(t, nil)

	// column 0 is age
	_, cmd := a.Update(keyMsg("s"))
	run(t, a, cmd)
	if a.tableView.Rows[0][1] != "Dee" {
		t.Errorf("Expected Dee first when sorted by age asc, got %v", a.tableView.Rows[0])
	}

	_, cmd = a.Update(keyMsg("s"))
	run(t, a, cmd)
	if a.tableView.Rows[0][1] != "Cid" {
		t.Errorf("Expected Cid first when sorted by age desc, got %v", a.tableView.Rows[0])
	}

	_, cmd = a.Update(keyMsg("s"))
	run(t, a, cmd)
	if len(a.req.Sorting) != 0 {
		t.Errorf("Expected sorting to be cleared, got %v", a.req.Sorting)
	}
}

func TestCycleSort(t *testing.T) {
	sorting := []models.SortField{{Field: "a", Direction: models.SortDesc}}

	got := CycleSort(sorting, "b")
	if len(got) != 2 || got[0].Field != "b" || got[0].Direction != models.SortAsc || got[1].Field != "a" {
		t.Errorf("Unexpected sorting %v", got)
	}
	if sorting[0].Field != "a" || len(sorting) != 1 {
		t.Error("Input sorting was modified")
	}

	got = CycleSort(got, "b")
	if got[0].Direction != models.SortDesc {
		t.Errorf("Expected desc, got %v", got)
	}

	got = CycleSort(got, "b")
	if len(got) != 1 || got[0].Field != "a" {
		t.Errorf("Expected only a, got %v", got)
	}
}

func TestApp_Filter(t *testing.T) {
	a := newTestApp(t, nil)

	a.Update(keyMsg("l")) // name column
	_, cmd := a.Update(keyMsg("/"))
	if cmd == nil || a.state.ViewMode != models.FilterMode {
		t.Fatal("Expected filter mode")
	}
	if a.filterInput.Field != "name" {
		t.Errorf("Expected filter on name, got %s", a.filterInput.Field)
	}

	_, cmd = a.Update(components.ApplyFilterMsg{Filter: models.FilterValue{
		Field: "name", Operator: models.OpStartsWith, Value: "E",
	}})
	run(t, a, cmd)
	if a.state.ViewMode != models.NormalMode {
		t.Error("Expected normal mode after applying filter")
	}
	if a.tableView.TotalRows != 1 || a.tableView.Rows[0][1] != "Eve" {
		t.Errorf("Expected only Eve, got %v", a.tableView.Rows)
	}

	_, cmd = a.Update(keyMsg("x"))
	run(t, a, cmd)
	if a.tableView.TotalRows != 5 {
		t.Errorf("Expected filters cleared, got total %d", a.tableView.TotalRows)
	}
}

func TestApp_CopyRow(t *testing.T) {
	var copied string
	a := newTestApp(t, &copied)

	a.Update(keyMsg("j"))
	a.Update(keyMsg("y"))
	if copied != `{"age":25,"name":"Bob"}` {
		t.Errorf("Unexpected clipboard content %q", copied)
	}
	if a.state.Status == "" {
		t.Error("Expected a status message after copy")
	}
}

func TestApp_LoadError(t *testing.T) {
	a := newTestApp(t, nil)

	a.Update(PageLoadedMsg{Seq: a.loadSeq, Err: errors.New("boom")})
	if a.err == nil {
		t.Fatal("Expected error to be kept")
	}
	if !strings.Contains(a.View(), "boom") {
		t.Error("Expected error in view")
	}
}

func TestApp_StaleLoadIgnored(t *testing.T) {
	a := newTestApp(t, nil)

	a.Update(PageLoadedMsg{Seq: a.loadSeq - 1, Page: models.DataPage{Total: 99}})
	if a.tableView.TotalRows != 5 {
		t.Errorf("Expected stale result to be ignored, got total %d", a.tableView.TotalRows)
	}
}

func TestApp_HelpAndQuit(t *testing.T) {
	a := newTestApp(t, nil)

	a.Update(keyMsg("?"))
	if a.state.ViewMode != models.HelpMode {
		t.Fatal("Expected help mode")
	}
	if !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Error("Expected help view")
	}
	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.state.ViewMode != models.NormalMode {
		t.Error("Expected normal mode after esc")
	}

	_, cmd := a.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestApp_View(t *testing.T) {
	a := newTestApp(t, nil)
	view := a.View()
	if !strings.Contains(view, "lazygrid · local") {
		t.Error("Expected title with source name")
	}
	if !strings.Contains(view, "Ann") {
		t.Error("Expected rows in view")
	}
}
