package iogeo_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gnames/gnflore/internal/iogeo"
	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/errcode"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptGeoBaseURL(baseURL),
		config.OptGeoRetryDelayMs(0),
	})
	return cfg
}

func registerGeo(regionName string) *int32 {
	var regionCalls int32
	httpmock.RegisterResponder("GET", `=~^https://geo\.api\.gouv\.fr/communes`,
		httpmock.NewStringResponder(200,
			`[{"nom":"Grenoble","code":"38185","codeRegion":"84","codeDepartement":"38"}]`))
	httpmock.RegisterResponder("GET", "https://geo.api.gouv.fr/regions/84",
		func(*http.Request) (*http.Response, error) {
			atomic.AddInt32(&regionCalls, 1)
			return httpmock.NewStringResponse(200,
				fmt.Sprintf(`{"nom":%q,"code":"84"}`, regionName)), nil
		})
	httpmock.RegisterResponder("GET", "https://geo.api.gouv.fr/departements/38",
		httpmock.NewStringResponder(200, `{"nom":"Isère","code":"38","codeRegion":"84"}`))
	return &regionCalls
}

func TestJurisdiction(t *testing.T) {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	regionCalls := registerGeo("Auvergne-Rhône-Alpes")

	c := iogeo.New(config.New(), nil)
	j, err := c.Jurisdiction(context.Background(), 45.1885, 5.7245)
	require.NoError(t, err)
	assert.Equal(t, "Grenoble", j.Commune)
	assert.Equal(t, "Auvergne-Rhône-Alpes", j.Region)
	assert.Equal(t, "84", j.RegionCode)
	assert.Equal(t, "Isère", j.Department)
	assert.Equal(t, "38", j.DepartmentCode)

	_, err = c.Jurisdiction(context.Background(), 45.19, 5.72)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(regionCalls), "region names are cached")
}

func TestJurisdictionHistoricalRegion(t *testing.T) {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	registerGeo("Rhône-Alpes")

	c := iogeo.New(config.New(), nil)
	j, err := c.Jurisdiction(context.Background(), 45.1885, 5.7245)
	require.NoError(t, err)
	assert.Equal(t, "Auvergne-Rhône-Alpes", j.Region)
}

func TestJurisdictionErrors(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantCalls int32
	}{
		{
			name: "outside of France",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[]`)
			},
			wantCalls: 1,
		},
		{
			name: "server keeps failing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantCalls: 3,
		},
		{
			name: "bad request is not retried",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantCalls: 1,
		},
		{
			name: "broken json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[{"nom":`)
			},
			wantCalls: 1,
		},
		{
			name: "no department code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[{"nom":"Somewhere","codeRegion":"84"}]`)
			},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			c := iogeo.New(testConfig(srv.URL), nil)
			_, err := c.Jurisdiction(context.Background(), 0, 0)
			require.Error(t, err)
			assert.Equal(t, errcode.GeocodeUnavailableError, errcode.CodeOf(err))
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}
