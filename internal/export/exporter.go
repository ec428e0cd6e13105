package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Columns returns the column order of a page: the declared fields when
// there are any, otherwise the sorted union of the row keys
func Columns(page models.DataPage, fields []models.FieldInfo) []string {
	if len(fields) > 0 {
		columns := make([]string, len(fields))
		for i, f := range fields {
			columns[i] = f.Field
		}
		return columns
	}

	seen := make(map[string]bool)
	var columns []string
	for _, row := range page.Items {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// WriteCSV writes a header and one record per item, rendering each cell
// with the formatter of its field type
func WriteCSV(w io.Writer, page models.DataPage, fields []models.FieldInfo, registry *format.Registry) error {
	writer := csv.NewWriter(w)

	columns := Columns(page, fields)
	types := make(map[string]string, len(fields))
	for _, f := range fields {
		types[f.Field] = f.DataType
	}

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, item := range page.Items {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = registry.Format(types[col], item[col])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes the page as indented JSON
func WriteJSON(w io.Writer, page models.DataPage) error {
	if page.Items == nil {
		page.Items = []models.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(page); err != nil {
		return fmt.Errorf("failed to marshal page to JSON: %w", err)
	}
	return nil
}

// ExportToCSV exports a page to a CSV file
func ExportToCSV(page models.DataPage, fields []models.FieldInfo, registry *format.Registry, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteCSV(file, page, fields, registry)
}

// ExportToJSON exports a page to a JSON file
func ExportToJSON(page models.DataPage, path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteJSON(file, page)
}
