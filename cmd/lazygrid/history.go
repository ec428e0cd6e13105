package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/history"
	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/source"
)

func openHistory(c *config.Config) (*history.Store, error) {
	path, err := c.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.NewStore(path)
}

// recorded wraps src so that every load lands in the history database.
// History failures are logged, never returned.
func recorded(c *config.Config, src source.Source) (source.Source, func()) {
	if !c.History.Enabled {
		return src, func() {}
	}
	store, err := openHistory(c)
	if err != nil {
		logger.Get().Warn("history disabled", "error", err)
		return src, func() {}
	}

	observed := source.Observe(src, func(e source.LoadEvent) {
		entry, err := history.NewEntry(e.Source, e.Request, e.Page, e.Elapsed, e.Err)
		if err == nil {
			err = store.Add(entry)
		}
		if err != nil {
			logger.Get().Warn("failed to record load", "error", err)
		}
	})
	return observed, func() { _ = store.Close() }
}

// historyLister is the read side of history.Store
type historyLister interface {
	GetRecent(limit int) ([]history.Entry, error)
	Search(text string, limit int) ([]history.Entry, error)
}

// listHistory runs exactly one query: a search when text is set, the
// recent entries otherwise
func listHistory(store historyLister, text string, limit int) ([]history.Entry, error) {
	if text != "" {
		return store.Search(text, limit)
	}
	return store.GetRecent(limit)
}

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent loads",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := listHistory(store, search, limit)
			if err != nil {
				return err
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("when", "source", "rows", "total", "took", "request", "error")
			for _, e := range entries {
				t.Row(
					e.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
					e.Source,
					fmt.Sprint(e.Rows),
					fmt.Sprint(e.Total),
					e.Duration.String(),
					e.Request,
					e.ErrorMessage,
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	cmd.Flags().StringVar(&search, "search", "", "only entries whose source or request contains this text")
	return cmd
}
