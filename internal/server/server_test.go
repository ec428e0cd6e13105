package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/odata"
	"github.com/rebeliceyang/lazygrid/internal/source"
)

func people() []models.Row {
	return []models.Row{
		{"Name": "Ann", "Age": float64(31), "City": "Oslo"},
		{"Name": "Bob", "Age": float64(25), "City": "Rome"},
		{"Name": "Cid", "Age": float64(42), "City": "Lima"},
		{"Name": "Dee", "Age": float64(25), "City": "Oslo"},
	}
}

func newTestServer(t *testing.T, dialect odata.Dialect) *httptest.Server {
	t.Helper()
	srv := New(source.NewLocal(people()), Config{Collection: "People", Dialect: dialect})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestCollection(t *testing.T) {
	ts := newTestServer(t, odata.V4)

	resp, body := get(t, ts.URL+"/People?$filter=City%20eq%20'Oslo'&$orderby=Name%20desc&$top=1&$skip=0&$count=true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, float64(2), body["@odata.count"])

	items, ok := body["value"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Dee", items[0].(map[string]interface{})["Name"])
}

func TestCollection_NoCount(t *testing.T) {
	ts := newTestServer(t, odata.V3)

	_, body := get(t, ts.URL+"/People")
	assert.NotContains(t, body, "odata.count")
	assert.Len(t, body["value"], 4)

	_, body = get(t, ts.URL+"/People?$inlinecount=allpages")
	assert.Equal(t, "4", body["odata.count"])
}

func TestCollection_Errors(t *testing.T) {
	ts := newTestServer(t, odata.V4)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"bad filter", "/People?$filter=Name%20like%20'x'", http.StatusBadRequest},
		{"bad skip", "/People?$top=2&$skip=3", http.StatusBadRequest},
		{"unknown collection", "/Planets", http.StatusNotFound},
		{"unknown path", "/a/b/c", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
			detail, ok := body["error"].(map[string]interface{})
			require.True(t, ok)
			assert.NotEmpty(t, detail["message"])
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, odata.V4)

	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	get(t, ts.URL+"/People")

	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	text, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), `lazygrid_http_requests_total{method="GET",route="/{collection}",status="200"} 1`)
	assert.Contains(t, string(text), `lazygrid_source_loads_total{outcome="ok",source="local"} 1`)
}

func TestRequestIDPropagation(t *testing.T) {
	ts := newTestServer(t, odata.V4)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "fixed-id")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "fixed-id", resp.Header.Get(RequestIDHeader))
}

// A remote source pointed at the server sees the same pages as the local
// engine does directly.
func TestRemoteRoundTrip(t *testing.T) {
	for _, dialect := range []odata.Dialect{odata.V3, odata.V4} {
		t.Run(dialect.String(), func(t *testing.T) {
			ts := newTestServer(t, dialect)
			remote := source.NewRemote(ts.URL+"/People", dialect)
			local := source.NewLocal(people())

			req := models.DataRequest{
				Page:     1,
				PageSize: models.PageSize(2),
				Sorting: []models.SortField{
					{Field: "Age", Direction: models.SortAsc},
					{Field: "Name", Direction: models.SortDesc},
				},
				Filters: []models.FilterGroup{{Filters: []models.FilterValue{
					{Field: "City", Operator: models.OpIn, Value: []interface{}{"Oslo", "Lima"}},
					{Field: "Name", Operator: models.OpStartsWith, Value: "B"},
				}}},
			}

			want, err := local.Load(context.Background(), req).Wait()
			require.NoError(t, err)
			got, err := remote.Load(context.Background(), req).Wait()
			require.NoError(t, err)

			assert.Equal(t, want.Total, got.Total)
			assert.Equal(t, want.Items, got.Items)
			assert.Equal(t, 4, got.Total)
		})
	}
}
