package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

func TestNew(t *testing.T) {
	rows := []models.Row{{"a": 1}}

	tests := []struct {
		name    string
		src     interface{}
		options string
		want    string
		wantErr error
	}{
		{name: "nil", src: nil, want: "empty"},
		{name: "odata", src: "http://host/People", options: "odata", want: "odata4"},
		{name: "odata3", src: "http://host/People", options: "odata3", want: "odata3"},
		{name: "odata4", src: "http://host/People", options: "odata4", want: "odata4"},
		{name: "rows", src: rows, want: "local"},
		{name: "map slice", src: []map[string]interface{}{{"a": 1}}, want: "local"},
		{name: "url without options", src: "http://host/People", wantErr: ErrUnsupportedSourceOptions},
		{name: "url with unknown options", src: "http://host/People", options: "rest", wantErr: ErrUnsupportedSourceOptions},
		{name: "number", src: 42, wantErr: ErrUnsupportedSourceType},
		{name: "map", src: map[string]interface{}{}, wantErr: ErrUnsupportedSourceType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.src, tt.options)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrConfiguration)
				assert.Nil(t, src)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.Name())
		})
	}
}

func TestEmpty(t *testing.T) {
	src, err := New(nil, "")
	require.NoError(t, err)

	page, err := src.Load(context.Background(), models.DataRequest{
		PageSize: models.PageSize(10),
		Filters: []models.FilterGroup{{Filters: []models.FilterValue{
			{Field: "a", Operator: models.OpEquals, Value: 1},
		}}},
	}).Wait()
	require.NoError(t, err)
	assert.Equal(t, models.DataPage{Items: []models.Row{}, Total: 0}, page)
}

func TestLocal(t *testing.T) {
	rows := []models.Row{{"a": 1}, {"a": 2}, {"a": 3}}
	src, err := New(rows, "")
	require.NoError(t, err)

	page, err := src.Load(context.Background(), models.DataRequest{
		PageSize: models.PageSize(2),
		Sorting:  []models.SortField{{Field: "a", Direction: models.SortDesc}},
	}).Wait()
	require.NoError(t, err)
	assert.Equal(t, []models.Row{{"a": 3}, {"a": 2}}, page.Items)
	assert.Equal(t, 3, page.Total)

	// bound by reference and never reordered
	assert.Equal(t, []models.Row{{"a": 1}, {"a": 2}, {"a": 3}}, rows)
	rows[0]["a"] = 10
	page, err = src.Load(context.Background(), models.DataRequest{}).Wait()
	require.NoError(t, err)
	assert.Equal(t, 10, page.Items[0]["a"])
}

func TestLocal_EngineErrorThroughResponse(t *testing.T) {
	src := NewLocal([]models.Row{{"a": 1}})

	var got error
	_, err := src.Load(context.Background(), models.DataRequest{
		Sorting: []models.SortField{{Field: "a", Direction: "sideways"}},
	}).Error(func(err error) { got = err }).Wait()

	assert.ErrorIs(t, err, models.ErrUnknownSortDirection)
	assert.ErrorIs(t, got, models.ErrUnknownSortDirection)
}
