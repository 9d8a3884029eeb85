package ioweb_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gnames/gnflore/internal/iogeo"
	"github.com/gnames/gnflore/internal/iometrics"
	"github.com/gnames/gnflore/internal/ioweb"
	"github.com/gnames/gnflore/pkg/aggregate"
	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/ent/nameidx"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnflore/pkg/ent/status"
	"github.com/gnames/gnflore/pkg/ent/traits"
	"github.com/gnames/gnflore/pkg/gnflore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFlore struct {
	recs     []occ.Record
	report   gnflore.StatusReport
	err      error
	occQuery occ.SearchQuery
	stQuery  gnflore.StatusQuery
}

func (f *fakeFlore) Occurrences(
	_ context.Context,
	q occ.SearchQuery,
) ([]occ.Record, error) {
	f.occQuery = q
	return f.recs, f.err
}

func (f *fakeFlore) Statuses(
	_ context.Context,
	q gnflore.StatusQuery,
) (gnflore.StatusReport, error) {
	f.stQuery = q
	return f.report, f.err
}

func (f *fakeFlore) Lookup(name string) (gnflore.NameInfo, bool) {
	if strings.HasPrefix(name, "abies") {
		return gnflore.NameInfo{
			Match:  nameidx.Match{Name: "Abies alba Mill.", ID: "80"},
			Traits: traits.Traits{Ecology: "Forêts montagnardes", Phenology: "Mai-Juin"},
		}, true
	}
	return gnflore.NameInfo{}, false
}

func (f *fakeFlore) Suggest(query string, n int) []nameidx.Match {
	var res []nameidx.Match
	for i := 0; i < n && i < 3 && query != ""; i++ {
		res = append(res, nameidx.Match{Name: query})
	}
	return res
}

func newServer(t *testing.T, fl gnflore.Flore) (*httptest.Server, *iometrics.Metrics) {
	m, err := iometrics.New()
	require.NoError(t, err)
	srv := httptest.NewServer(ioweb.New(config.New(), fl, m).Handler())
	t.Cleanup(srv.Close)
	return srv, m
}

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestPing(t *testing.T) {
	srv, _ := newServer(t, &fakeFlore{})
	code, body := get(t, srv.URL+"/api/v1/ping")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pong", body)

	code, body = get(t, srv.URL+"/api/v1/version")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, gnflore.Version)
}

func TestOccurrences(t *testing.T) {
	fl := &fakeFlore{recs: []occ.Record{
		{Key: 1, Species: "Abies alba"},
		{Key: 2, Species: "Carex atrata"},
	}}
	srv, _ := newServer(t, fl)

	code, body := get(t, srv.URL+"/api/v1/occurrences?lat=45.2&lon=5.7&radius=1&taxonKey=1,2&taxonKey=3")
	require.Equal(t, http.StatusOK, code, body)

	var res ioweb.OccurrencesResponse
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, 2, res.OccurrencesNum)
	assert.Equal(t, "Carex atrata", res.Occurrences[1].Species)
	assert.True(t, strings.HasPrefix(res.Geometry, "POLYGON(("))
	assert.Equal(t, res.Geometry, fl.occQuery.Geometry)
	assert.Equal(t, []int{1, 2, 3}, fl.occQuery.TaxonKeys)

	geom := "POLYGON((0 0,1 0,1 1,0 0))"
	code, _ = get(t, srv.URL+"/api/v1/occurrences?geometry="+strings.ReplaceAll(geom, " ", "%20"))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, geom, fl.occQuery.Geometry)
}

func TestOccurrencesKingdom(t *testing.T) {
	tests := []struct {
		msg     string
		params  string
		kingdom int
		taxa    []int
	}{
		{"default", "", 0, nil},
		{"animals", "&kingdomKey=1", 1, nil},
		{"fungi with taxa", "&kingdomKey=5&taxonKey=7", 5, []int{7}},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			fl := &fakeFlore{}
			srv, _ := newServer(t, fl)
			code, body := get(t, srv.URL+"/api/v1/occurrences?lat=45&lon=5"+v.params)
			require.Equal(t, http.StatusOK, code, body)
			assert.Equal(t, v.kingdom, fl.occQuery.KingdomKey)
			assert.Equal(t, v.taxa, fl.occQuery.TaxonKeys)
		})
	}
}

func TestOccurrencesBadGeometryNotSent(t *testing.T) {
	fl := &fakeFlore{}
	srv, _ := newServer(t, fl)
	code, _ := get(t, srv.URL+"/api/v1/occurrences?lat=90&lon=5")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, fl.occQuery.Geometry)
}

func TestStatuses(t *testing.T) {
	fl := &fakeFlore{report: gnflore.StatusReport{
		Jurisdiction: status.Jurisdiction{Region: "Corse", Department: "Corse-du-Sud"},
		Statuses: []gnflore.SpeciesStatus{
			{Resolved: status.Resolved{Species: "Abies alba", Code: "PR", Level: status.Regional}, Occurrences: 3},
		},
	}}
	srv, _ := newServer(t, fl)

	code, body := get(t, srv.URL+"/api/v1/statuses?lat=41.9&lon=8.7")
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"level":"regional"`)
	assert.Contains(t, body, `"occurrences":3`)
	assert.Equal(t, 41.9, fl.stQuery.Lat)
	assert.Equal(t, 0.0, fl.stQuery.RadiusKm)
}

func TestBadRequests(t *testing.T) {
	srv, _ := newServer(t, &fakeFlore{})
	tests := []string{
		"/api/v1/statuses?lon=5",
		"/api/v1/statuses?lat=north&lon=5",
		"/api/v1/statuses?lat=45&lon=5&taxonKey=abc",
		"/api/v1/occurrences",
		"/api/v1/occurrences?lat=100&lon=5",
		"/api/v1/occurrences?lat=90&lon=5",
		"/api/v1/occurrences?lat=89.99&lon=5&radius=5",
		"/api/v1/occurrences?geometry=POLYGON((0%200,%20181%200,%201%201,%200%200))",
		"/api/v1/occurrences?geometry=POLYGON((0%200,%201%2091,%201%201,%200%200))",
		"/api/v1/occurrences?geometry=POINT(1%202)",
		"/api/v1/occurrences?lat=45&lon=5&kingdomKey=plants",
		"/api/v1/occurrences?lat=45&lon=5&kingdomKey=-1",
		"/api/v1/names?q=abies&limit=0",
	}
	for _, path := range tests {
		code, body := get(t, srv.URL+path)
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.Contains(t, body, `"error"`, path)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		msg  string
		err  error
		code int
	}{
		{"geocoding", iogeo.GeocodeUnavailableError(45, 5, errors.New("down")), http.StatusBadGateway},
		{"upstream", aggregate.UpstreamUnavailableError(300, errors.New("down")), http.StatusInternalServerError},
		{"invalid", gnflore.InvalidLocationError(gnflore.StatusQuery{Lat: 95}, errors.New("bad")), http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			srv, _ := newServer(t, &fakeFlore{err: v.err})
			code, body := get(t, srv.URL+"/api/v1/statuses?lat=45&lon=5")
			assert.Equal(t, v.code, code)
			assert.NotContains(t, body, "<em>")
		})
	}
}

func TestNames(t *testing.T) {
	srv, _ := newServer(t, &fakeFlore{})

	code, body := get(t, srv.URL+"/api/v1/names?q=abi&limit=2")
	assert.Equal(t, http.StatusOK, code)
	var res []nameidx.Match
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Len(t, res, 2)

	code, body = get(t, srv.URL+"/api/v1/names")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "[]", strings.TrimSpace(body))

	code, body = get(t, srv.URL+"/api/v1/names/lookup?q=abies%20alba")
	assert.Equal(t, http.StatusOK, code)
	var info gnflore.NameInfo
	require.NoError(t, json.Unmarshal([]byte(body), &info))
	assert.Equal(t, "80", info.ID)
	assert.Equal(t, "Forêts montagnardes", info.Ecology)
	assert.Equal(t, "Mai-Juin", info.Phenology)
	assert.Contains(t, body, `"id":"80"`)
	assert.NotContains(t, body, "criteria", "empty traits are omitted")

	code, _ = get(t, srv.URL+"/api/v1/names/lookup?q=quercus")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetrics(t *testing.T) {
	srv, _ := newServer(t, &fakeFlore{})
	get(t, srv.URL+"/api/v1/ping")
	get(t, srv.URL+"/api/v1/ping")

	code, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body,
		`gnflore_http_requests_total{path="/api/v1/ping",status_code="200"} 2`)
}
