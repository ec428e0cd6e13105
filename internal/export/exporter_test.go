package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

func testPage() models.DataPage {
	return models.DataPage{
		Items: []models.Row{
			{
				"name":    "Widget, large",
				"price":   1234.5,
				"active":  true,
				"created": time.Date(2024, 1, 2, 12, 0, 0, 0, time.Local),
			},
			{
				"name":   `Gadget "mini"`,
				"price":  0.25,
				"active": false,
			},
		},
		Total: 12,
	}
}

func testFields() []models.FieldInfo {
	return []models.FieldInfo{
		{Field: "name", DataType: "text"},
		{Field: "price", DataType: "decimal"},
		{Field: "active", DataType: "bool"},
		{Field: "created", DataType: "date"},
	}
}

func TestExportToCSV(t *testing.T) {
	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "test.csv")

	registry := format.NewRegistry(format.DefaultLocale())
	err := ExportToCSV(testPage(), testFields(), registry, csvPath)
	if err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	info, err := os.Stat(csvPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm()&0600 != 0600 {
		t.Errorf("Expected file to be readable and writable by owner, got %o", info.Mode().Perm())
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	expectedHeader := []string{"name", "price", "active", "created"}
	if !slicesEqual(records[0], expectedHeader) {
		t.Errorf("Header mismatch.\nExpected: %v\nGot: %v", expectedHeader, records[0])
	}

	expectedRow1 := []string{"Widget, large", "1 234.50", "Yes", "2024-01-02"}
	if !slicesEqual(records[1], expectedRow1) {
		t.Errorf("Row 1 mismatch.\nExpected: %v\nGot: %v", expectedRow1, records[1])
	}

	expectedRow2 := []string{`Gadget "mini"`, "0.25", "No", ""}
	if !slicesEqual(records[2], expectedRow2) {
		t.Errorf("Row 2 mismatch.\nExpected: %v\nGot: %v", expectedRow2, records[2])
	}
}

func TestWriteCSV_ColumnsFromRows(t *testing.T) {
	page := models.DataPage{Items: []models.Row{
		{"b": 2, "a": "x"},
		{"c": nil, "a": "y"},
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, page, nil, format.NewRegistry(format.DefaultLocale())); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	expected := "a,b,c\nx,2,\ny,,\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestExportToJSON(t *testing.T) {
	tmpDir := t.TempDir()
	jsonPath := filepath.Join(tmpDir, "test.json")

	err := ExportToJSON(testPage(), jsonPath)
	if err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	info, err := os.Stat(jsonPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm()&0600 != 0600 {
		t.Errorf("Expected file to be readable and writable by owner, got %o", info.Mode().Perm())
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var parsed models.DataPage
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if parsed.Total != 12 {
		t.Errorf("Expected total 12, got %d", parsed.Total)
	}
	if len(parsed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(parsed.Items))
	}
	if parsed.Items[0]["name"] != "Widget, large" {
		t.Errorf("Expected name 'Widget, large', got '%v'", parsed.Items[0]["name"])
	}

	jsonStr := string(data)
	if !strings.Contains(jsonStr, "\n") {
		t.Error("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(jsonStr, "  ") {
		t.Error("JSON should be indented")
	}
}

func TestExportEmptyPage(t *testing.T) {
	tmpDir := t.TempDir()
	registry := format.NewRegistry(format.DefaultLocale())

	csvPath := filepath.Join(tmpDir, "empty.csv")
	err := ExportToCSV(models.DataPage{}, testFields(), registry, csvPath)
	if err != nil {
		t.Fatalf("ExportToCSV with empty page failed: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 1 { // Only header
		t.Errorf("Expected 1 record (header), got %d", len(records))
	}

	jsonPath := filepath.Join(tmpDir, "empty.json")
	if err := ExportToJSON(models.DataPage{}, jsonPath); err != nil {
		t.Fatalf("ExportToJSON with empty page failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}
	if !strings.Contains(string(data), `"items": []`) {
		t.Errorf("Expected an empty items array, got %s", data)
	}
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
