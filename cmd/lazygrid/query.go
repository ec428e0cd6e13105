package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazygrid/internal/export"
	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

func newQueryCmd() *cobra.Command {
	var (
		srcFlags sourceFlags
		reqFlags requestFlags
		output   string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Load one page from a source and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srcFlags.apply(&cfg.Source)

			req, err := reqFlags.build(cmd, cfg)
			if err != nil {
				return err
			}
			src, release, err := openSource(ctx, cfg)
			if err != nil {
				return err
			}
			defer release()

			src, closeHistory := recorded(cfg, src)
			defer closeHistory()

			page, err := src.Load(ctx, req).Wait()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			registry := format.NewRegistry(cfg.Display)
			switch output {
			case "json":
				return export.WriteJSON(out, page)
			case "csv":
				return export.WriteCSV(out, page, req.Fields, registry)
			case "table":
				return writeTable(out, page, req.Fields, registry)
			}
			return fmt.Errorf("unknown output format %q", output)
		},
	}

	srcFlags.register(cmd)
	reqFlags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, csv, json")
	return cmd
}

func writeTable(w io.Writer, page models.DataPage, fields []models.FieldInfo, registry *format.Registry) error {
	columns := export.Columns(page, fields)
	types := make(map[string]string, len(fields))
	for _, f := range fields {
		types[f.Field] = f.DataType
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(columns...)
	for _, row := range page.Items {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = registry.Format(types[col], row[col])
		}
		t.Row(cells...)
	}

	_, err := fmt.Fprintf(w, "%s\n%d of %d rows\n", t.Render(), len(page.Items), page.Total)
	return err
}
