// Package iotesting provides shared test utilities: temporary home
// directories and fake upstream services.
// This is an internal package for test infrastructure only.
package iotesting

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnfmt"
)

// SetupTempHome creates a temporary home directory and points HOME to it
// for the duration of the test, so tests never touch real configuration
// in ~/.config/gnflore.
func SetupTempHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// WriteTempConfigYAML writes config.yaml into the configuration directory
// of a home created by SetupTempHome.
func WriteTempConfigYAML(t *testing.T, home, content string) {
	t.Helper()

	dir := config.ConfigDir(home)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config.yaml: %v", err)
	}
}

// GetTestConfig returns a configuration pointing to fake services. Retry
// delays are removed and intermediate pages are kept in memory.
func GetTestConfig(t *testing.T, gbifURL, geoURL string) *config.Config {
	t.Helper()

	cfg := config.New()
	opts := []config.Option{
		config.OptHomeDir(t.TempDir()),
		config.OptGBIFRetryDelayMs(0),
		config.OptGeoRetryDelayMs(0),
		config.OptScratchBackend("memory"),
	}
	if gbifURL != "" {
		opts = append(opts, config.OptGBIFBaseURL(gbifURL))
	}
	if geoURL != "" {
		opts = append(opts, config.OptGeoBaseURL(geoURL))
	}
	cfg.Update(opts)
	return cfg
}

// Species are used by fake occurrence records in a round-robin way.
var Species = []string{
	"Carex atrata",
	"Gentiana lutea",
	"Abies alba",
}

// GBIFServer is a fake occurrence search service with total records.
type GBIFServer struct {
	*httptest.Server
	total int
	calls atomic.Int32

	mu      sync.Mutex
	kingdom string
}

// NewGBIFServer starts a fake occurrence search service. It is closed
// when the test finishes.
func NewGBIFServer(t *testing.T, total int) *GBIFServer {
	t.Helper()

	res := &GBIFServer{total: total}
	mux := http.NewServeMux()
	mux.HandleFunc("/occurrence/search", res.search)
	res.Server = httptest.NewServer(mux)
	t.Cleanup(res.Close)
	return res
}

// Calls returns the number of requests received.
func (s *GBIFServer) Calls() int {
	return int(s.calls.Load())
}

// KingdomKey returns the kingdomKey parameter of the last request.
func (s *GBIFServer) KingdomKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kingdom
}

func (s *GBIFServer) search(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	s.mu.Lock()
	s.kingdom = q.Get("kingdomKey")
	s.mu.Unlock()
	if q.Get("geometry") == "" {
		http.Error(w, "geometry is required", http.StatusBadRequest)
		return
	}

	page := occ.Page{
		Offset: offset,
		Limit:  limit,
		Count:  s.total,
	}
	for i := offset; i < min(offset+limit, s.total); i++ {
		lat, lon := 45.0+float64(i)/10000, 5.0
		page.Results = append(page.Results, occ.Record{
			Key:              int64(i + 1),
			ScientificName:   Species[i%len(Species)] + " L.",
			Species:          Species[i%len(Species)],
			DecimalLatitude:  &lat,
			DecimalLongitude: &lon,
		})
	}
	page.EndOfRecords = offset+limit >= s.total

	enc := gnfmt.GNjson{}
	data, err := enc.Encode(page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// NewGeoServer starts a fake reverse geocoding service that puts every
// location into the given region and department.
func NewGeoServer(t *testing.T, region, department string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/communes", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w,
			`[{"nom":"Commune","code":"00001","codeRegion":"R1","codeDepartement":"D1"}]`)
	})
	mux.HandleFunc("/regions/R1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"nom":%q,"code":"R1"}`, region)
	})
	mux.HandleFunc("/departements/D1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"nom":%q,"code":"D1"}`, department)
	})
	res := httptest.NewServer(mux)
	t.Cleanup(res.Close)
	return res
}
