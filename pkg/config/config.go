// Package config provides configuration management for GNflore.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - GBIF: base_url, kingdom_key, page_size, batch_size, max_retries,
//     retry_delay_ms, timeout_sec
//   - Geo: base_url, cache_ttl_min, max_retries, retry_delay_ms, timeout_sec
//   - Registry: path, taxref_path
//   - Scratch: backend
//   - Search: radius_km, segments
//   - Server: port
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields:
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use GNFLORE_ prefix with underscores for nesting:
//
//	GNFLORE_GBIF_PAGE_SIZE=300
//	GNFLORE_SCRATCH_BACKEND=badger
//	GNFLORE_LOG_LEVEL=info
//	GNFLORE_JOBS_NUMBER=8
package config

import (
	"runtime"
)

// Config represents the complete GNflore configuration.
type Config struct {
	// GBIF contains settings of the occurrence-search API and of the
	// paged aggregation that runs against it.
	GBIF GBIFConfig `mapstructure:"gbif" yaml:"gbif"`

	// Geo contains settings of the reverse-geocoding API.
	Geo GeoConfig `mapstructure:"geo" yaml:"geo"`

	// Registry points to reference datasets.
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`

	// Scratch selects the storage used for intermediate batches.
	Scratch ScratchConfig `mapstructure:"scratch" yaml:"scratch"`

	// Search contains defaults for circular search areas.
	Search SearchConfig `mapstructure:"search" yaml:"search"`

	Server ServerConfig `mapstructure:"server" yaml:"server"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of scientific-name parsers kept in the pool.
	// Default value is set accoring to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string `yaml:"-"`
}

// GBIFConfig contains occurrence-search settings.
type GBIFConfig struct {
	// BaseURL is the root of the GBIF API, without trailing slash.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// KingdomKey filters occurrences when no taxon key is given.
	// 6 is Plantae in the GBIF backbone.
	KingdomKey int `mapstructure:"kingdom_key" yaml:"kingdom_key"`

	// PageSize is the number of records requested per page.
	// GBIF does not return more than 300 records per request.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// BatchSize is the number of pages accumulated in memory before
	// they are flushed to scratch storage.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// MaxRetries is the total number of attempts for one request.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// RetryDelayMs is the fixed delay between attempts in milliseconds.
	RetryDelayMs int `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`

	// TimeoutSec limits a single HTTP call.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// GeoConfig contains reverse-geocoding settings.
type GeoConfig struct {
	BaseURL      string `mapstructure:"base_url"       yaml:"base_url"`
	CacheTTLMin  int    `mapstructure:"cache_ttl_min"  yaml:"cache_ttl_min"`
	MaxRetries   int    `mapstructure:"max_retries"    yaml:"max_retries"`
	RetryDelayMs int    `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`
	TimeoutSec   int    `mapstructure:"timeout_sec"    yaml:"timeout_sec"`
}

// RegistryConfig locates reference tables. Both values can be local
// paths or http(s) URLs.
type RegistryConfig struct {
	// Path is the semicolon-delimited status registry (BDCstatut.csv).
	// Empty value means DataDir/BDCstatut.csv.
	Path string `mapstructure:"path" yaml:"path"`

	// TaxrefPath is an optional JSON object of scientific names used for
	// name lookup.
	TaxrefPath string `mapstructure:"taxref_path" yaml:"taxref_path"`

	// EcologyPath is an optional JSON object of ecology descriptions.
	EcologyPath string `mapstructure:"ecology_path" yaml:"ecology_path"`

	// CriteriaPath is an optional JSON array of herbarium identification
	// criteria.
	CriteriaPath string `mapstructure:"criteria_path" yaml:"criteria_path"`

	// PhysiognomyPath is an optional semicolon-delimited table of plant
	// physiognomy.
	PhysiognomyPath string `mapstructure:"physiognomy_path" yaml:"physiognomy_path"`

	// PhenologyPath is an optional semicolon-delimited table of flowering
	// periods.
	PhenologyPath string `mapstructure:"phenology_path" yaml:"phenology_path"`
}

// ScratchConfig selects the scratch backend.
type ScratchConfig struct {
	// Backend can be 'file', 'badger', 'sqlite' or 'memory'.
	Backend string `mapstructure:"backend" yaml:"backend"`
}

// SearchConfig contains defaults for circular search areas.
type SearchConfig struct {
	// RadiusKm is the radius of the search circle around a point.
	RadiusKm float64 `mapstructure:"radius_km" yaml:"radius_km"`

	// Segments is the number of polygon sides approximating the circle.
	Segments int `mapstructure:"segments" yaml:"segments"`
}

// ServerConfig contains settings of the HTTP surface.
type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		GBIF: GBIFConfig{
			BaseURL:      "https://api.gbif.org/v1",
			KingdomKey:   6,
			PageSize:     300,
			BatchSize:    20,
			MaxRetries:   3,
			RetryDelayMs: 1000,
			TimeoutSec:   20,
		},
		Geo: GeoConfig{
			BaseURL:      "https://geo.api.gouv.fr",
			CacheTTLMin:  60,
			MaxRetries:   3,
			RetryDelayMs: 1000,
			TimeoutSec:   10,
		},
		Scratch: ScratchConfig{
			Backend: "file",
		},
		Search: SearchConfig{
			RadiusKm: 5,
			Segments: 32,
		},
		Server: ServerConfig{
			Port: 8787,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(), // Default to number of CPU threads
	}

	return res
}
