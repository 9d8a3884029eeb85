package config_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gnames/gnflore/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirs(t *testing.T) {
	tempHome := t.TempDir()

	tests := []struct {
		msg string
		fn  func(string) string
		res string
	}{
		{
			msg: "config dir",
			fn:  config.ConfigDir,
			res: filepath.Join(tempHome, ".config", "gnflore"),
		},
		{
			msg: "cache dir",
			fn:  config.CacheDir,
			res: filepath.Join(tempHome, ".cache", "gnflore"),
		},
		{
			msg: "scratch dir",
			fn:  config.ScratchDir,
			res: filepath.Join(tempHome, ".cache", "gnflore", "scratch"),
		},
		{
			msg: "log dir",
			fn:  config.LogDir,
			res: filepath.Join(tempHome, ".local", "share", "gnflore", "logs"),
		},
		{
			msg: "registry file",
			fn:  config.RegistryFilePath,
			res: filepath.Join(tempHome, ".local", "share", "gnflore", "BDCstatut.csv"),
		},
	}

	for _, v := range tests {
		res := v.fn(tempHome)
		assert.Equal(t, v.res, res, v.msg)
	}
}

func TestNew(t *testing.T) {
	cfg := config.New()
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.gbif.org/v1", cfg.GBIF.BaseURL)
	assert.Equal(t, 6, cfg.GBIF.KingdomKey)
	assert.Equal(t, 300, cfg.GBIF.PageSize)
	assert.Equal(t, 20, cfg.GBIF.BatchSize)
	assert.Equal(t, 3, cfg.GBIF.MaxRetries)
	assert.Equal(t, 1000, cfg.GBIF.RetryDelayMs)

	assert.Equal(t, "https://geo.api.gouv.fr", cfg.Geo.BaseURL)
	assert.Equal(t, "file", cfg.Scratch.Backend)
	assert.Equal(t, 5.0, cfg.Search.RadiusKm)
	assert.Equal(t, 32, cfg.Search.Segments)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "file", cfg.Log.Destination)
	assert.Equal(t, runtime.NumCPU(), cfg.JobsNumber)
}

func TestOptionGBIFBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"sets valid url", "http://localhost:8080/v1", "http://localhost:8080/v1"},
		{"trims trailing slash", "https://example.org/v1/ ", "https://example.org/v1"},
		{"ignores empty", "", "https://api.gbif.org/v1"},
		{"ignores no scheme", "example.org", "https://api.gbif.org/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Update([]config.Option{config.OptGBIFBaseURL(tt.input)})
			assert.Equal(t, tt.expected, cfg.GBIF.BaseURL)
		})
	}
}

func TestOptionGBIFPageSize(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"sets valid size", 100, 100},
		{"accepts upstream maximum", 300, 300},
		{"ignores above maximum", 1000, 300},
		{"ignores zero", 0, 300},
		{"ignores negative", -5, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Update([]config.Option{config.OptGBIFPageSize(tt.input)})
			assert.Equal(t, tt.expected, cfg.GBIF.PageSize)
		})
	}
}

func TestOptionRetryDelay(t *testing.T) {
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptGBIFRetryDelayMs(0),
		config.OptGeoRetryDelayMs(-1),
	})
	assert.Equal(t, 0, cfg.GBIF.RetryDelayMs)
	assert.Equal(t, 1000, cfg.Geo.RetryDelayMs)
}

func TestOptionScratchBackend(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"file", "file", "file"},
		{"badger", "badger", "badger"},
		{"sqlite", "sqlite", "sqlite"},
		{"memory", "memory", "memory"},
		{"normalizes to lowercase", "BADGER", "badger"},
		{"ignores invalid value", "redis", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Update([]config.Option{config.OptScratchBackend(tt.input)})
			assert.Equal(t, tt.expected, cfg.Scratch.Backend)
		})
	}
}

func TestOptionSearch(t *testing.T) {
	tests := []struct {
		name     string
		radius   float64
		segments int
		expR     float64
		expS     int
	}{
		{"valid values", 2.5, 64, 2.5, 64},
		{"ignores non-positive radius", 0, 64, 5, 64},
		{"ignores degenerate polygon", 1, 2, 1, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Update([]config.Option{
				config.OptSearchRadiusKm(tt.radius),
				config.OptSearchSegments(tt.segments),
			})
			assert.Equal(t, tt.expR, cfg.Search.RadiusKm)
			assert.Equal(t, tt.expS, cfg.Search.Segments)
		})
	}
}

func TestOptionLog(t *testing.T) {
	tests := []struct {
		name   string
		opts   []config.Option
		level  string
		format string
		dest   string
	}{
		{
			name:   "valid values",
			opts:   []config.Option{config.OptLogLevel("DEBUG"), config.OptLogFormat("text"), config.OptLogDestination("stderr")},
			level:  "debug",
			format: "text",
			dest:   "stderr",
		},
		{
			name:   "invalid values keep defaults",
			opts:   []config.Option{config.OptLogLevel("loud"), config.OptLogFormat("xml"), config.OptLogDestination("stdin")},
			level:  "info",
			format: "json",
			dest:   "file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Update(tt.opts)
			assert.Equal(t, tt.level, cfg.Log.Level)
			assert.Equal(t, tt.format, cfg.Log.Format)
			assert.Equal(t, tt.dest, cfg.Log.Destination)
		})
	}
}

func TestRegistryPath(t *testing.T) {
	home := t.TempDir()
	cfg := config.New()
	cfg.Update([]config.Option{config.OptHomeDir(home)})
	assert.Equal(t, config.RegistryFilePath(home), cfg.RegistryPath())

	cfg.Update([]config.Option{config.OptRegistryPath("https://example.org/BDC.csv")})
	assert.Equal(t, "https://example.org/BDC.csv", cfg.RegistryPath())
}

func TestToOptions(t *testing.T) {
	src := config.New()
	src.Update([]config.Option{
		config.OptGBIFPageSize(50),
		config.OptGBIFRetryDelayMs(0),
		config.OptScratchBackend("sqlite"),
		config.OptSearchRadiusKm(1.5),
		config.OptServerPort(9000),
		config.OptRegistryPath("/tmp/BDCstatut.csv"),
		config.OptRegistryEcologyPath("/tmp/ecology.json"),
		config.OptRegistryPhenologyPath("/tmp/Phenologie.csv"),
		config.OptJobsNumber(3),
		config.OptHomeDir("/home/someone"),
	})

	dst := config.New()
	dst.Update(src.ToOptions())

	assert.Equal(t, 50, dst.GBIF.PageSize)
	assert.Equal(t, 0, dst.GBIF.RetryDelayMs)
	assert.Equal(t, "sqlite", dst.Scratch.Backend)
	assert.Equal(t, 1.5, dst.Search.RadiusKm)
	assert.Equal(t, 9000, dst.Server.Port)
	assert.Equal(t, "/tmp/BDCstatut.csv", dst.Registry.Path)
	assert.Equal(t, "/tmp/ecology.json", dst.Registry.EcologyPath)
	assert.Equal(t, "/tmp/Phenologie.csv", dst.Registry.PhenologyPath)
	assert.Empty(t, dst.Registry.CriteriaPath)
	assert.Equal(t, 3, dst.JobsNumber)
	assert.Empty(t, dst.HomeDir, "HomeDir is runtime-only")
}
