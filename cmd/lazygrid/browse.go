package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazygrid/internal/app"
	"github.com/rebeliceyang/lazygrid/internal/format"
)

func newBrowseCmd() *cobra.Command {
	var (
		srcFlags sourceFlags
		reqFlags requestFlags
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a source in the terminal grid",
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

			a := app.New(app.Options{
				Source:       src,
				Request:      req,
				Registry:     format.NewRegistry(cfg.Display),
				Theme:        cfg.UI.Theme,
				MaxCellWidth: cfg.UI.MaxCellWidth,
			})

			opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
			if cfg.UI.MouseEnabled {
				opts = append(opts, tea.WithMouseCellMotion())
			}
			if _, err := tea.NewProgram(a, opts...).Run(); err != nil {
				return fmt.Errorf("error running program: %w", err)
			}
			return nil
		},
	}

	srcFlags.register(cmd)
	reqFlags.register(cmd)
	return cmd
}
