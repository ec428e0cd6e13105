package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/odata"
)

// ErrHTTPStatus is returned when the endpoint answers with a non-2xx status
var ErrHTTPStatus = errors.New("unexpected http status")

// Fetcher performs the GET of a compiled page URL
type Fetcher interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPFetcher is the net/http transport
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher wraps client; a nil client means http.DefaultClient
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

// Get implements Fetcher
func (f *HTTPFetcher) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}
	return resp.Body, nil
}

// Remote answers requests from an OData collection endpoint
type Remote struct {
	url           string
	dialect       odata.Dialect
	fetcher       Fetcher
	countFallback bool
	logger        *slog.Logger
}

// NewRemote binds a remote source to a collection URL
func NewRemote(url string, dialect odata.Dialect, opts ...Option) *Remote {
	return newRemote(url, dialect, buildOptions(opts))
}

func newRemote(url string, dialect odata.Dialect, o options) *Remote {
	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(&http.Client{Timeout: o.timeout})
	}
	return &Remote{
		url:           url,
		dialect:       dialect,
		fetcher:       fetcher,
		countFallback: o.countFallback,
		logger:        o.logger,
	}
}

// Name implements Source
func (r *Remote) Name() string { return r.dialect.String() }

// URLs compiles req against the bound endpoint
func (r *Remote) URLs(req models.DataRequest) (odata.URLSet, error) {
	return odata.BuildURL(r.dialect, r.url, req)
}

// Load implements Source. Compile errors are delivered through the response
// like transport and decoding errors.
func (r *Remote) Load(ctx context.Context, req models.DataRequest) *Response {
	return newResponse(ctx, traced(r.logger, r.Name(), req, func(ctx context.Context) (models.DataPage, error) {
		if err := req.ValidatePaging(); err != nil {
			return models.DataPage{}, err
		}

		urls, err := r.URLs(req)
		if err != nil {
			return models.DataPage{}, err
		}

		body, err := r.fetcher.Get(ctx, urls.EncodedPageURL())
		if err != nil {
			return models.DataPage{}, fmt.Errorf("failed to fetch %s: %w", r.url, err)
		}
		defer body.Close()

		page, err := odata.DecodeResponse(r.dialect, body)
		if errors.Is(err, odata.ErrMalformedCount) && r.countFallback {
			logger.FromContext(ctx, r.logger).Warn("count missing from response, using item count",
				"url", r.url, "items", len(page.Items), "error", err)
			page.Total = len(page.Items)
			return page, nil
		}
		return page, err
	}))
}
