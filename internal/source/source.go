// Package source selects where a data request is answered: nowhere, in
// memory, an OData endpoint or a SQL table.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/odata"
)

var (
	// ErrConfiguration wraps every invalid source setup
	ErrConfiguration = errors.New("source configuration error")
	// ErrUnsupportedSourceOptions is returned for a URL source without a known dialect tag
	ErrUnsupportedSourceOptions = fmt.Errorf("%w: unsupported source options", ErrConfiguration)
	// ErrUnsupportedSourceType is returned for a source value of an unknown shape
	ErrUnsupportedSourceType = fmt.Errorf("%w: unsupported source type", ErrConfiguration)
)

// Source answers data requests
type Source interface {
	Name() string
	Load(ctx context.Context, req models.DataRequest) *Response
}

// DefaultTimeout bounds a remote fetch when no timeout was configured
const DefaultTimeout = 30 * time.Second

type options struct {
	fetcher       Fetcher
	timeout       time.Duration
	countFallback bool
	logger        *slog.Logger
}

// Option configures a source built by New
type Option func(*options)

// WithFetcher replaces the HTTP transport of a remote source
func WithFetcher(f Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithTimeout sets the timeout of the default HTTP transport
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithCountFallback makes a remote source use the number of returned items
// when the response count is missing or malformed
func WithCountFallback(enabled bool) Option {
	return func(o *options) { o.countFallback = enabled }
}

// WithLogger sets the logger used for load tracing
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

// dialectTags are the source options accepted for a URL source
var dialectTags = map[string]odata.Dialect{
	"odata":  odata.V4,
	"odata3": odata.V3,
	"odata4": odata.V4,
}

// New resolves a source value once at setup time:
//
//	nil          -> empty source
//	string       -> remote OData source; options "odata" (v4), "odata3" or "odata4"
//	[]models.Row -> local source bound to the slice, not a copy of it
//
// Anything else fails with an ErrConfiguration error.
func New(src interface{}, sourceOptions string, opts ...Option) (Source, error) {
	o := buildOptions(opts)

	switch v := src.(type) {
	case nil:
		return NewEmpty(), nil
	case string:
		dialect, ok := dialectTags[sourceOptions]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnsupportedSourceOptions, sourceOptions)
		}
		return newRemote(v, dialect, o), nil
	case []models.Row:
		return newLocal(v, o), nil
	default:
		return nil, fmt.Errorf("%w %T", ErrUnsupportedSourceType, src)
	}
}

// traced runs load with a fresh request id attached to ctx and logs the outcome
func traced(log *slog.Logger, name string, req models.DataRequest, load resolver) resolver {
	return func(ctx context.Context) (models.DataPage, error) {
		if logger.RequestID(ctx) == "" {
			ctx = logger.WithRequestID(ctx, uuid.NewString())
		}
		log := logger.FromContext(ctx, log).With("source", name)
		start := time.Now()

		page, err := load(ctx)
		if err != nil {
			log.Debug("load failed", "page", req.Page, "error", err)
			return page, err
		}
		log.Debug("load finished",
			"page", req.Page,
			"items", len(page.Items),
			"total", page.Total,
			"elapsed", time.Since(start))
		return page, nil
	}
}
