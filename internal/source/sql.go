package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rebeliceyang/lazygrid/internal/db/connection"
	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// querier runs the two statements of a SQL load
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) ([]models.Row, error)
	Count(ctx context.Context, sql string, args ...interface{}) (int, error)
}

// SQL answers requests by compiling them into queries against one table
type SQL struct {
	name    string
	table   string
	builder *filter.Builder
	db      querier
	logger  *slog.Logger
}

// NewSQL binds a source to a table of a SQLite database
func NewSQL(db *sql.DB, table string, opts ...Option) *SQL {
	o := buildOptions(opts)
	return &SQL{
		name:    filter.SQLite.Name,
		table:   table,
		builder: filter.NewBuilder(filter.SQLite),
		db:      sqlDB{db: db},
		logger:  o.logger,
	}
}

// NewPostgres binds a source to a table reachable through pool
func NewPostgres(pool *connection.Pool, table string, opts ...Option) *SQL {
	o := buildOptions(opts)
	return &SQL{
		name:    filter.Postgres.Name,
		table:   table,
		builder: filter.NewBuilder(filter.Postgres),
		db:      pool,
		logger:  o.logger,
	}
}

// Name implements Source
func (s *SQL) Name() string { return s.name }

// Load implements Source. The count and page queries run concurrently.
func (s *SQL) Load(ctx context.Context, req models.DataRequest) *Response {
	return newResponse(ctx, traced(s.logger, s.Name(), req, func(ctx context.Context) (models.DataPage, error) {
		if err := req.ValidatePaging(); err != nil {
			return models.DataPage{}, err
		}

		pageStmt, countStmt, err := s.builder.BuildSelect(s.table, req)
		if err != nil {
			return models.DataPage{}, err
		}

		var page models.DataPage
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			items, err := s.db.Query(gctx, pageStmt.SQL, pageStmt.Args...)
			if err != nil {
				return fmt.Errorf("failed to query %s: %w", s.table, err)
			}
			page.Items = items
			return nil
		})
		g.Go(func() error {
			total, err := s.db.Count(gctx, countStmt.SQL, countStmt.Args...)
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", s.table, err)
			}
			page.Total = total
			return nil
		})
		if err := g.Wait(); err != nil {
			return models.DataPage{}, err
		}
		return page, nil
	}))
}

// sqlDB adapts database/sql to querier
type sqlDB struct {
	db *sql.DB
}

func (d sqlDB) Query(ctx context.Context, query string, args ...interface{}) ([]models.Row, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []models.Row{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func (d sqlDB) Count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}
