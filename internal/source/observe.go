package source

import (
	"context"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// LoadEvent describes a finished load
type LoadEvent struct {
	Source  string
	Request models.DataRequest
	Page    models.DataPage
	Err     error
	Elapsed time.Duration
}

// Observed wraps a source so that observe runs after every load it resolves,
// before the response callbacks.
type Observed struct {
	Source
	observe func(LoadEvent)
}

// Observe decorates src with observe
func Observe(src Source, observe func(LoadEvent)) *Observed {
	return &Observed{Source: src, observe: observe}
}

// Load implements Source
func (o *Observed) Load(ctx context.Context, req models.DataRequest) *Response {
	inner := o.Source.Load(ctx, req)
	return newResponse(ctx, func(context.Context) (models.DataPage, error) {
		start := time.Now()
		page, err := inner.Wait()
		o.observe(LoadEvent{
			Source:  o.Name(),
			Request: req,
			Page:    page,
			Err:     err,
			Elapsed: time.Since(start),
		})
		return page, err
	})
}
