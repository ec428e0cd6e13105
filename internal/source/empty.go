package source

import (
	"context"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Empty answers every request with no rows
type Empty struct{}

// NewEmpty returns the empty source
func NewEmpty() *Empty {
	return &Empty{}
}

// Name implements Source
func (e *Empty) Name() string { return "empty" }

// Load implements Source
func (e *Empty) Load(ctx context.Context, _ models.DataRequest) *Response {
	return newResponse(ctx, func(context.Context) (models.DataPage, error) {
		return models.DataPage{Items: []models.Row{}, Total: 0}, nil
	})
}
