package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorOrDefault(t *testing.T) {
	op, err := OperatorOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, OpEquals, op)

	for _, candidate := range Operators {
		op, err := OperatorOrDefault(candidate)
		require.NoError(t, err)
		assert.Equal(t, candidate, op)
	}

	_, err = OperatorOrDefault("like")
	require.ErrorIs(t, err, ErrUnknownOperator)
	assert.Contains(t, err.Error(), `"like"`)
}

func TestParseSortDirection(t *testing.T) {
	dir, err := ParseSortDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, dir)

	_, err = ParseSortDirection("DESC")
	assert.ErrorIs(t, err, ErrUnknownSortDirection)
}

func TestDataRequestHelpers(t *testing.T) {
	req := DataRequest{
		Page:     3,
		PageSize: PageSize(20),
		Fields:   []FieldInfo{{Field: "price", DataType: "decimal"}},
	}

	info, ok := req.FieldInfo("price")
	require.True(t, ok)
	assert.Equal(t, "decimal", info.DataType)

	_, ok = req.FieldInfo("name")
	assert.False(t, ok)

	assert.Equal(t, 60, req.Offset())
	assert.Nil(t, req.Vars())

	req.PageSize = nil
	assert.Equal(t, 0, req.Offset())
}

func TestLoadRequest(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"page": 1,
		"pageSize": 10,
		"sorting": [{"field": "name", "direction": "asc"}],
		"filters": [{"filters": [{"field": "age", "operator": "gte", "value": 18}]}],
		"fields": [{"field": "age", "dataType": "int"}],
		"args": {"vars": [{"name": "$select", "value": "name,age"}, {"name": "$expand", "value": null}]}
	}`), 0644))

	req, err := LoadRequest(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 1, req.Page)
	require.NotNil(t, req.PageSize)
	assert.Equal(t, 10, *req.PageSize)
	assert.Equal(t, []SortField{{Field: "name", Direction: SortAsc}}, req.Sorting)
	require.Len(t, req.Filters, 1)
	assert.Equal(t, OpGreaterOrEqual, req.Filters[0].Filters[0].Operator)
	assert.Equal(t, float64(18), req.Filters[0].Filters[0].Value)
	require.Len(t, req.Vars(), 2)
	assert.Equal(t, "name,age", *req.Vars()[0].Value)
	assert.Nil(t, req.Vars()[1].Value)

	yamlPath := filepath.Join(dir, "request.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`page: 0
pageSize: null
sorting:
  - field: name
    direction: desc
filters:
  - filters:
      - field: status
        operator: in
        value: [open, closed]
`), 0644))

	req, err = LoadRequest(yamlPath)
	require.NoError(t, err)
	assert.Nil(t, req.PageSize)
	assert.Equal(t, SortDesc, req.Sorting[0].Direction)
	assert.Equal(t, []interface{}{"open", "closed"}, req.Filters[0].Filters[0].Value)
}

func TestLoadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"a": 1}, {"a": 2, "b": "x"}]`), 0644))

	rows, err := LoadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "x", rows[1]["b"])

	_, err = LoadRows(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
