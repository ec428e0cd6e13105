package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/db/connection"
	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/source"
)

// sourceFlags overrides the source section of the config
type sourceFlags struct {
	kind     string
	url      string
	dialect  string
	rows     string
	sqlite   string
	postgres string
	table    string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", "", "source kind: empty, local, odata, sqlite, postgres")
	cmd.Flags().StringVar(&f.url, "url", "", "OData collection URL")
	cmd.Flags().StringVar(&f.dialect, "dialect", "", "OData dialect: odata, odata3, odata4")
	cmd.Flags().StringVar(&f.rows, "rows", "", "JSON file holding an array of rows")
	cmd.Flags().StringVar(&f.sqlite, "sqlite", "", "SQLite database file")
	cmd.Flags().StringVar(&f.postgres, "postgres", "", "Postgres connection string")
	cmd.Flags().StringVar(&f.table, "table", "", "table to query for SQL sources")
}

// apply copies the set flags onto sc and infers the kind when only a
// location was given
func (f *sourceFlags) apply(sc *config.SourceConfig) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&sc.URL, f.url)
	set(&sc.Dialect, f.dialect)
	set(&sc.RowsFile, f.rows)
	set(&sc.SQLitePath, f.sqlite)
	set(&sc.PostgresDSN, f.postgres)
	set(&sc.Table, f.table)

	switch {
	case f.kind != "":
		sc.Kind = f.kind
	case f.url != "":
		sc.Kind = "odata"
	case f.rows != "":
		sc.Kind = "local"
	case f.sqlite != "":
		sc.Kind = "sqlite"
	case f.postgres != "":
		sc.Kind = "postgres"
	}
}

// openSource builds the configured source. The returned func releases
// database handles.
func openSource(ctx context.Context, c *config.Config) (source.Source, func(), error) {
	noop := func() {}
	sc := c.Source
	opts := []source.Option{
		source.WithLogger(logger.Get()),
		source.WithTimeout(c.Remote.Timeout()),
		source.WithCountFallback(c.Remote.CountFallback),
	}

	switch strings.ToLower(sc.Kind) {
	case "", "empty":
		src, err := source.New(nil, "", opts...)
		return src, noop, err
	case "local":
		if sc.RowsFile == "" {
			return nil, noop, fmt.Errorf("%w: local source needs a rows file", source.ErrConfiguration)
		}
		rows, err := models.LoadRows(sc.RowsFile)
		if err != nil {
			return nil, noop, err
		}
		src, err := source.New(rows, "", opts...)
		return src, noop, err
	case "odata":
		src, err := source.New(sc.URL, sc.Dialect, opts...)
		return src, noop, err
	case "sqlite":
		if sc.SQLitePath == "" || sc.Table == "" {
			return nil, noop, fmt.Errorf("%w: sqlite source needs a database file and a table", source.ErrConfiguration)
		}
		db, err := sql.Open("sqlite3", sc.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return source.NewSQL(db, sc.Table, opts...), func() { db.Close() }, nil
	case "postgres":
		if sc.Table == "" {
			return nil, noop, fmt.Errorf("%w: postgres source needs a table", source.ErrConfiguration)
		}
		pool, err := connection.NewPool(ctx, connection.Config{DSN: sc.PostgresDSN})
		if err != nil {
			return nil, noop, err
		}
		return source.NewPostgres(pool, sc.Table, opts...), pool.Close, nil
	}
	return nil, noop, fmt.Errorf("%w: unknown source kind %q", source.ErrConfiguration, sc.Kind)
}

// requestFlags builds the request of a command
type requestFlags struct {
	favorite string
	file     string
	page     int
	pageSize int
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.favorite, "favorite", "", "start from a saved request")
	cmd.Flags().StringVar(&f.file, "request", "", "request document (JSON or YAML)")
	cmd.Flags().IntVar(&f.page, "page", 0, "zero-based page index")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "rows per page (default from config)")
}

func (f *requestFlags) build(cmd *cobra.Command, c *config.Config) (models.DataRequest, error) {
	var req models.DataRequest
	if f.favorite != "" {
		saved, err := useFavorite(f.favorite)
		if err != nil {
			return req, err
		}
		req = saved
	}
	if f.file != "" {
		loaded, err := models.LoadRequest(f.file)
		if err != nil {
			return req, err
		}
		req = loaded
	}
	if cmd.Flags().Changed("page") {
		req.Page = f.page
	}
	switch {
	case cmd.Flags().Changed("page-size"):
		req.PageSize = models.PageSize(f.pageSize)
	case req.PageSize == nil && c.Grid.PageSize > 0:
		req.PageSize = models.PageSize(c.Grid.PageSize)
	}
	return req, nil
}
