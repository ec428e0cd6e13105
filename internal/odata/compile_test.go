package odata

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

func strPtr(s string) *string { return &s }

func TestBuildURL_SortAndPagingV4(t *testing.T) {
	urls, err := BuildURL(V4, "/api/items", models.DataRequest{
		Page:     1,
		PageSize: models.PageSize(10),
		Sorting:  []models.SortField{{Field: "name", Direction: models.SortAsc}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/items?$orderby=name asc", urls.DataURL)
	assert.Equal(t, "/api/items?$orderby=name asc&$top=10&$skip=10&$count=true", urls.PageURL)
	assert.NotContains(t, urls.PageURL, "$filter")
}

func TestBuildURL_EmptyRequest(t *testing.T) {
	urls, err := BuildURL(V3, "/api/items", models.DataRequest{})
	require.NoError(t, err)
	assert.Equal(t, "/api/items?", urls.DataURL)
	assert.Equal(t, "/api/items?$inlinecount=allpages", urls.PageURL)
}

func TestBuildURL_FilterGroups(t *testing.T) {
	req := models.DataRequest{
		Page:     0,
		PageSize: models.PageSize(25),
		Fields:   []models.FieldInfo{{Field: "price", DataType: "decimal"}},
		Filters: []models.FilterGroup{
			{Filters: []models.FilterValue{
				{Field: "name", Operator: models.OpEquals, Value: "x"},
				{Field: "age", Operator: models.OpGreaterThan, Value: 5},
			}},
			{Filters: []models.FilterValue{
				{Field: "price", Operator: models.OpLowerOrEqual, Value: 9.5},
			}},
		},
		Sorting: []models.SortField{
			{Field: "name", Direction: models.SortAsc},
			{Field: "age", Direction: models.SortDesc},
		},
		Args: &models.Args{Vars: []models.Var{
			{Name: "$select", Value: strPtr("name,age")},
			{Name: "$expand", Value: nil},
		}},
	}

	urls, err := BuildURL(V3, "http://host/odata/People", req)
	require.NoError(t, err)
	assert.Equal(t,
		"http://host/odata/People?$filter=(name eq 'x' or age gt 5) and (price le 9.5m)&$orderby=name asc, age desc&$select=name,age",
		urls.DataURL)
	assert.Equal(t, urls.DataURL+"&$top=25&$skip=0&$inlinecount=allpages", urls.PageURL)
}

func TestBuildURL_SingleGroupUnparenthesized(t *testing.T) {
	urls, err := BuildURL(V4, "/x", models.DataRequest{
		Filters: []models.FilterGroup{{Filters: []models.FilterValue{
			{Field: "status", Operator: models.OpNotEquals, Value: "closed"},
			{Field: "age", Operator: models.OpGreaterOrEqual, Value: 18},
			{Field: "age", Operator: models.OpLowerThan, Value: 3},
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "/x?$filter=not(status eq 'closed') or age ge 18 or age lt 3", urls.DataURL)
}

func TestBuildURL_TextOperators(t *testing.T) {
	req := models.DataRequest{Filters: []models.FilterGroup{{Filters: []models.FilterValue{
		{Field: "name", Operator: models.OpContains, Value: "abc"},
	}}}}

	v3, err := BuildURL(V3, "/x", req)
	require.NoError(t, err)
	assert.Equal(t, "/x?$filter=substringof('abc', name)", v3.DataURL)

	v4, err := BuildURL(V4, "/x", req)
	require.NoError(t, err)
	assert.Equal(t, "/x?$filter=contains(name, 'abc')", v4.DataURL)

	req.Filters[0].Filters = []models.FilterValue{
		{Field: "name", Operator: models.OpStartsWith, Value: "a"},
		{Field: "name", Operator: models.OpEndsWith, Value: "z"},
	}
	for _, d := range []Dialect{V3, V4} {
		urls, err := BuildURL(d, "/x", req)
		require.NoError(t, err)
		assert.Equal(t, "/x?$filter=startswith(name, 'a') or endswith(name, 'z')", urls.DataURL)
	}
}

func TestBuildURL_In(t *testing.T) {
	build := func(value interface{}) string {
		urls, err := BuildURL(V4, "/x", models.DataRequest{Filters: []models.FilterGroup{{Filters: []models.FilterValue{
			{Field: "id", Operator: models.OpIn, Value: value},
		}}}})
		require.NoError(t, err)
		return urls.DataURL
	}

	assert.Equal(t, "/x?$filter=((id eq 1) or (id eq 2))", build([]interface{}{1, 2}))
	assert.Equal(t, "/x?$filter=(id eq 'a')", build([]string{"a"}))
	assert.Equal(t, "/x?", build([]interface{}{}))
	assert.Equal(t, "/x?", build(nil))
}

func TestBuildURL_EmptyInDroppedFromGroup(t *testing.T) {
	urls, err := BuildURL(V4, "/x", models.DataRequest{Filters: []models.FilterGroup{
		{Filters: []models.FilterValue{
			{Field: "id", Operator: models.OpIn, Value: []interface{}{}},
			{Field: "name", Operator: models.OpEquals, Value: "a"},
		}},
		{Filters: []models.FilterValue{
			{Field: "id", Operator: models.OpIn},
		}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "/x?$filter=name eq 'a'", urls.DataURL)
}

func TestBuildURL_Errors(t *testing.T) {
	_, err := BuildURL(V4, "/x", models.DataRequest{Filters: []models.FilterGroup{{Filters: []models.FilterValue{
		{Field: "a", Operator: "between", Value: 1},
	}}}})
	require.ErrorIs(t, err, ErrUnknownFilterOperator)
	assert.Contains(t, err.Error(), "between")

	_, err = BuildURL(V4, "/x", models.DataRequest{Sorting: []models.SortField{{Field: "a", Direction: "sideways"}}})
	assert.ErrorIs(t, err, models.ErrUnknownSortDirection)

	_, err = BuildURL(V4, "/x", models.DataRequest{Filters: []models.FilterGroup{{Filters: []models.FilterValue{
		{Field: "a", Operator: models.OpIn, Value: "abc"},
	}}}})
	assert.ErrorIs(t, err, models.ErrInvalidFilterValue)
}

func TestBuildURL_Deterministic(t *testing.T) {
	req := models.DataRequest{
		Page:     2,
		PageSize: models.PageSize(5),
		Filters: []models.FilterGroup{{Filters: []models.FilterValue{
			{Field: "id", Operator: models.OpIn, Value: []interface{}{3, 1, 2}},
		}}},
	}
	first, err := BuildURL(V3, "/x", req)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := BuildURL(V3, "/x", req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLiteral(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	decimal := &models.FieldInfo{Field: "price", DataType: "decimal"}
	date := &models.FieldInfo{Field: "created", DataType: "date"}

	tests := []struct {
		name    string
		dialect Dialect
		info    *models.FieldInfo
		value   interface{}
		want    string
	}{
		{"v3 date", V3, nil, when, "DateTime'2024-01-02T03:04:05'"},
		{"v4 date", V4, nil, when, "2024-01-02T03:04:05z"},
		{"v4 date pointer", V4, nil, &when, "2024-01-02T03:04:05z"},
		{"date string on date field", V3, date, "2024-01-02T03:04:05", "DateTime'2024-01-02T03:04:05'"},
		{"date-like string on text field", V3, nil, "2024-01-02", "'2024-01-02'"},
		{"bool true", V4, nil, true, "true"},
		{"bool false", V3, nil, false, "false"},
		{"int", V4, nil, 42, "42"},
		{"float", V4, nil, 1.25, "1.25"},
		{"decimal", V4, decimal, 1.25, "1.25m"},
		{"decimal int", V3, decimal, int64(7), "7m"},
		{"string", V4, nil, "abc", "'abc'"},
		{"quoted string", V4, nil, "O'Brien", "'O''Brien'"},
		{"decimal field string value", V4, decimal, "7", "'7'"},
		{"nil", V4, nil, nil, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.Literal(tt.info, tt.value))
		})
	}
}

func TestParseDialect(t *testing.T) {
	for _, s := range []string{"3", "v3", "odata3", " ODATA3 "} {
		d, err := ParseDialect(s)
		require.NoError(t, err)
		assert.Equal(t, Version3, d.Version)
	}
	for _, s := range []string{"4", "v4", "odata4", "odata"} {
		d, err := ParseDialect(s)
		require.NoError(t, err)
		assert.Equal(t, Version4, d.Version)
	}
	_, err := ParseDialect("odata2")
	assert.ErrorIs(t, err, ErrUnknownDialect)

	d, err := DialectFor(Version3)
	require.NoError(t, err)
	assert.Equal(t, "odata3", d.String())
	assert.Equal(t, "odata.count", d.CountKey())

	_, err = DialectFor(5)
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestEncodedURLs(t *testing.T) {
	urls, err := BuildURL(V4, "/x", models.DataRequest{
		Sorting: []models.SortField{{Field: "name", Direction: models.SortAsc}, {Field: "age", Direction: models.SortDesc}},
		Filters: []models.FilterGroup{{Filters: []models.FilterValue{{Field: "name", Value: "a b"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"/x?$filter=name+eq+%27a+b%27&$orderby=name+asc%2C+age+desc",
		urls.EncodedDataURL())
	assert.Equal(t,
		"/x?$filter=name+eq+%27a+b%27&$orderby=name+asc%2C+age+desc&$count=true",
		urls.EncodedPageURL())

	empty, err := BuildURL(V3, "/x", models.DataRequest{})
	require.NoError(t, err)
	assert.Equal(t, "/x?", empty.EncodedDataURL())
	assert.Equal(t, "/x?$inlinecount=allpages", empty.EncodedPageURL())
}

func TestEncodedPageURL_ReservedCharacters(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "ampersand", value: "AT&T"},
		{name: "injected parameter", value: "x&$top=1"},
		{name: "equals", value: "a=b"},
		{name: "hash", value: "#1"},
		{name: "plus", value: "1+1"},
		{name: "percent", value: "50%"},
		{name: "question mark", value: "why?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := "v&w"
			urls, err := BuildURL(V4, "/api/items", models.DataRequest{
				PageSize: models.PageSize(5),
				Filters: []models.FilterGroup{{Filters: []models.FilterValue{
					{Field: "name", Operator: models.OpEquals, Value: tt.value},
					{Field: "name", Operator: models.OpContains, Value: tt.value},
				}}},
				Args: &models.Args{Vars: []models.Var{{Name: "tag", Value: &value}}},
			})
			require.NoError(t, err)

			parsed, err := url.Parse(urls.EncodedPageURL())
			require.NoError(t, err)
			assert.Equal(t, "/api/items", parsed.Path)

			query := parsed.Query()
			quoted := "'" + tt.value + "'"
			assert.Equal(t, "name eq "+quoted+" or contains(name, "+quoted+")", query.Get("$filter"))
			assert.Equal(t, "v&w", query.Get("tag"))
			assert.Equal(t, []string{"5"}, query["$top"])
			assert.Equal(t, "0", query.Get("$skip"))
			assert.Equal(t, "true", query.Get("$count"))
			assert.Len(t, query, 5)
		})
	}
}
