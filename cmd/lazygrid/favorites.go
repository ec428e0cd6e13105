package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/favorites"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

func openFavorites() (*favorites.Manager, error) {
	dir, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}
	return favorites.NewManager(dir)
}

// useFavorite returns the saved request and counts the use
func useFavorite(name string) (models.DataRequest, error) {
	m, err := openFavorites()
	if err != nil {
		return models.DataRequest{}, err
	}
	fav, err := m.Get(name)
	if err != nil {
		return models.DataRequest{}, err
	}
	if err := m.RecordUsage(fav.Name); err != nil {
		return models.DataRequest{}, err
	}
	return fav.Request, nil
}

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage saved requests",
	}

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openFavorites()
			if err != nil {
				return err
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("name", "description", "tags", "uses")
			for _, fav := range m.Search(search) {
				t.Row(fav.Name, fav.Description, strings.Join(fav.Tags, ","), fmt.Sprint(fav.UsageCount))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "filter by name, description or tag")

	var (
		reqFlags    requestFlags
		description string
		tags        []string
	)
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Save a request under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := reqFlags.build(cmd, cfg)
			if err != nil {
				return err
			}
			m, err := openFavorites()
			if err != nil {
				return err
			}
			fav, err := m.Add(args[0], description, req, tags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", fav.Name)
			return nil
		},
	}
	reqFlags.register(add)
	add.Flags().StringVar(&description, "description", "", "what the request is for")
	add.Flags().StringSliceVar(&tags, "tag", nil, "tag, may be repeated")

	remove := &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"remove"},
		Short:   "Delete a saved request",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openFavorites()
			if err != nil {
				return err
			}
			return m.Delete(args[0])
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
