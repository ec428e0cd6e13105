package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Result is the terminal outcome of a load
type Result struct {
	Page models.DataPage
	Err  error
}

type resolver func(ctx context.Context) (models.DataPage, error)

// Response is a deferred load. Nothing runs until Fetch or Wait is called;
// after that exactly one of the success or error callbacks fires, then the
// always callback, then the result is delivered on the channel.
type Response struct {
	ctx     context.Context
	resolve resolver

	mu        sync.Mutex
	onSuccess func(items []models.Row, total int)
	onError   func(err error)
	onAlways  func()

	once   sync.Once
	done   chan struct{}
	result Result
}

func newResponse(ctx context.Context, resolve resolver) *Response {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Response{
		ctx:     ctx,
		resolve: resolve,
		done:    make(chan struct{}),
	}
}

func failed(err error) *Response {
	return newResponse(context.Background(), func(context.Context) (models.DataPage, error) {
		return models.DataPage{}, err
	})
}

// Success sets the callback for a successful load, replacing any previous one
func (r *Response) Success(fn func(items []models.Row, total int)) *Response {
	r.mu.Lock()
	r.onSuccess = fn
	r.mu.Unlock()
	return r
}

// Error sets the callback for a failed load, replacing any previous one
func (r *Response) Error(fn func(err error)) *Response {
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
	return r
}

// Always sets the callback run after either outcome, replacing any previous one
func (r *Response) Always(fn func()) *Response {
	r.mu.Lock()
	r.onAlways = fn
	r.mu.Unlock()
	return r
}

// Fetch starts the load on its own goroutine. Repeated calls do not run it
// again; every returned channel receives the same result.
func (r *Response) Fetch() <-chan Result {
	r.once.Do(func() {
		go r.run()
	})

	out := make(chan Result, 1)
	go func() {
		<-r.done
		out <- r.result
		close(out)
	}()
	return out
}

// Wait fetches and blocks until the result is available
func (r *Response) Wait() (models.DataPage, error) {
	res := <-r.Fetch()
	return res.Page, res.Err
}

func (r *Response) run() {
	defer close(r.done)

	page, err := r.call()
	if err == nil && page.Items == nil {
		page.Items = []models.Row{}
	}
	r.result = Result{Page: page, Err: err}

	r.mu.Lock()
	onSuccess, onError, onAlways := r.onSuccess, r.onError, r.onAlways
	r.mu.Unlock()

	if err != nil {
		if onError != nil {
			onError(err)
		}
	} else if onSuccess != nil {
		onSuccess(page.Items, page.Total)
	}
	if onAlways != nil {
		onAlways()
	}
}

func (r *Response) call() (page models.DataPage, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("load panicked: %v", p)
		}
	}()
	if err := r.ctx.Err(); err != nil {
		return models.DataPage{}, err
	}
	return r.resolve(r.ctx)
}
