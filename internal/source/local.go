package source

import (
	"context"
	"log/slog"

	"github.com/rebeliceyang/lazygrid/internal/engine"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Local answers requests from an in-memory slice bound by reference.
// The engine copies it per request.
type Local struct {
	rows   []models.Row
	logger *slog.Logger
}

// NewLocal binds a local source to rows
func NewLocal(rows []models.Row, opts ...Option) *Local {
	return newLocal(rows, buildOptions(opts))
}

func newLocal(rows []models.Row, o options) *Local {
	return &Local{rows: rows, logger: o.logger}
}

// Name implements Source
func (l *Local) Name() string { return "local" }

// Load implements Source
func (l *Local) Load(ctx context.Context, req models.DataRequest) *Response {
	return newResponse(ctx, traced(l.logger, l.Name(), req, func(context.Context) (models.DataPage, error) {
		return engine.Run(l.rows, req)
	}))
}
