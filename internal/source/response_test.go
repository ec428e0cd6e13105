package source

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

func TestResponse_NothingRunsBeforeFetch(t *testing.T) {
	var calls atomic.Int32
	resp := newResponse(context.Background(), func(context.Context) (models.DataPage, error) {
		calls.Add(1)
		return models.DataPage{Total: 1}, nil
	})

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	page, err := resp.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, []models.Row{}, page.Items)

	// a second fetch delivers the same result without running again
	res := <-resp.Fetch()
	assert.Equal(t, 1, res.Page.Total)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResponse_SuccessThenAlways(t *testing.T) {
	var mu sync.Mutex
	var events []string

	resp := newResponse(context.Background(), func(context.Context) (models.DataPage, error) {
		return models.DataPage{Items: []models.Row{{"a": 1}}, Total: 5}, nil
	})
	resp.Success(func(items []models.Row, total int) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "first")
	})
	resp.Success(func(items []models.Row, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Len(t, items, 1)
		assert.Equal(t, 5, total)
		events = append(events, "success")
	}).Error(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "error")
	}).Always(func() {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "always")
	})

	res := <-resp.Fetch()
	require.NoError(t, res.Err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"success", "always"}, events)
}

func TestResponse_ErrorThenAlways(t *testing.T) {
	boom := errors.New("boom")
	var events []string
	var mu sync.Mutex
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	_, err := failed(boom).
		Success(func([]models.Row, int) { record("success") }).
		Error(func(err error) {
			assert.ErrorIs(t, err, boom)
			record("error")
		}).
		Always(func() { record("always") }).
		Wait()
	assert.ErrorIs(t, err, boom)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"error", "always"}, events)
}

func TestResponse_CallbacksNotInline(t *testing.T) {
	block := make(chan struct{})
	var fired atomic.Bool

	resp := newResponse(context.Background(), func(context.Context) (models.DataPage, error) {
		<-block
		return models.DataPage{}, nil
	}).Always(func() { fired.Store(true) })

	ch := resp.Fetch()
	assert.False(t, fired.Load())
	close(block)
	<-ch
	assert.True(t, fired.Load())
}

func TestResponse_Panic(t *testing.T) {
	_, err := newResponse(context.Background(), func(context.Context) (models.DataPage, error) {
		panic("bad row")
	}).Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad row")
}

func TestResponse_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	_, err := newResponse(ctx, func(context.Context) (models.DataPage, error) {
		ran.Store(true)
		return models.DataPage{}, nil
	}).Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran.Load())
}
