package config

import (
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptGBIFBaseURL sets the root URL of the occurrence-search API.
func OptGBIFBaseURL(s string) Option {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	return func(c *Config) {
		if isValidURL("GBIF BaseURL", s) {
			c.GBIF.BaseURL = s
		}
	}
}

// OptGBIFKingdomKey sets the kingdom used when no taxon key is given.
func OptGBIFKingdomKey(i int) Option {
	return func(c *Config) {
		if isValidInt("GBIF KingdomKey", i) {
			c.GBIF.KingdomKey = i
		}
	}
}

// OptGBIFPageSize sets the number of records per page.
// Values above 300 are truncated by the upstream service, so they are
// rejected here.
func OptGBIFPageSize(i int) Option {
	return func(c *Config) {
		if isValidInt("GBIF PageSize", i) && isInRange("GBIF PageSize", i, 1, 300) {
			c.GBIF.PageSize = i
		}
	}
}

// OptGBIFBatchSize sets how many pages are kept in memory before a flush
// to scratch storage.
func OptGBIFBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("GBIF BatchSize", i) {
			c.GBIF.BatchSize = i
		}
	}
}

// OptGBIFMaxRetries sets the total number of attempts per page request.
func OptGBIFMaxRetries(i int) Option {
	return func(c *Config) {
		if isValidInt("GBIF MaxRetries", i) {
			c.GBIF.MaxRetries = i
		}
	}
}

// OptGBIFRetryDelayMs sets the delay between attempts. Zero disables
// waiting.
func OptGBIFRetryDelayMs(i int) Option {
	return func(c *Config) {
		if isNonNegativeInt("GBIF RetryDelayMs", i) {
			c.GBIF.RetryDelayMs = i
		}
	}
}

// OptGBIFTimeoutSec sets the timeout of a single HTTP call.
func OptGBIFTimeoutSec(i int) Option {
	return func(c *Config) {
		if isValidInt("GBIF TimeoutSec", i) {
			c.GBIF.TimeoutSec = i
		}
	}
}

// OptGeoBaseURL sets the root URL of the reverse-geocoding API.
func OptGeoBaseURL(s string) Option {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	return func(c *Config) {
		if isValidURL("Geo BaseURL", s) {
			c.Geo.BaseURL = s
		}
	}
}

// OptGeoCacheTTLMin sets for how long geocoding answers are cached.
func OptGeoCacheTTLMin(i int) Option {
	return func(c *Config) {
		if isValidInt("Geo CacheTTLMin", i) {
			c.Geo.CacheTTLMin = i
		}
	}
}

// OptGeoMaxRetries sets the total number of attempts per geocoding call.
func OptGeoMaxRetries(i int) Option {
	return func(c *Config) {
		if isValidInt("Geo MaxRetries", i) {
			c.Geo.MaxRetries = i
		}
	}
}

// OptGeoRetryDelayMs sets the delay between geocoding attempts.
func OptGeoRetryDelayMs(i int) Option {
	return func(c *Config) {
		if isNonNegativeInt("Geo RetryDelayMs", i) {
			c.Geo.RetryDelayMs = i
		}
	}
}

// OptGeoTimeoutSec sets the timeout of a single geocoding call.
func OptGeoTimeoutSec(i int) Option {
	return func(c *Config) {
		if isValidInt("Geo TimeoutSec", i) {
			c.Geo.TimeoutSec = i
		}
	}
}

// OptRegistryPath sets location of the status registry, a local path or
// an http(s) URL.
func OptRegistryPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Registry Path", s) {
			c.Registry.Path = s
		}
	}
}

// OptRegistryTaxrefPath sets location of the JSON name table.
func OptRegistryTaxrefPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Registry TaxrefPath", s) {
			c.Registry.TaxrefPath = s
		}
	}
}

// OptRegistryEcologyPath sets location of the JSON ecology table.
func OptRegistryEcologyPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Registry EcologyPath", s) {
			c.Registry.EcologyPath = s
		}
	}
}

// OptRegistryCriteriaPath sets location of the JSON herbarium criteria.
func OptRegistryCriteriaPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Registry CriteriaPath", s) {
			c.Registry.CriteriaPath = s
		}
	}
}

// OptRegistryPhysiognomyPath sets location of the physiognomy table.
func OptRegistryPhysiognomyPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Registry PhysiognomyPath", s) {
			c.Registry.PhysiognomyPath = s
		}
	}
}

// OptRegistryPhenologyPath sets location of the phenology table.
func OptRegistryPhenologyPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Registry PhenologyPath", s) {
			c.Registry.PhenologyPath = s
		}
	}
}

// OptScratchBackend sets the scratch storage.
// Valid values: "file", "badger", "sqlite", "memory".
func OptScratchBackend(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Scratch.Backend", s) {
			c.Scratch.Backend = s
		}
	}
}

// OptSearchRadiusKm sets default radius of a circular search area.
func OptSearchRadiusKm(f float64) Option {
	return func(c *Config) {
		if isValidFloat("Search RadiusKm", f) {
			c.Search.RadiusKm = f
		}
	}
}

// OptSearchSegments sets the number of sides of the polygon that
// approximates a circle.
func OptSearchSegments(i int) Option {
	return func(c *Config) {
		if isInRange("Search Segments", i, 3, 360) {
			c.Search.Segments = i
		}
	}
}

// OptServerPort sets the port of the HTTP server.
func OptServerPort(i int) Option {
	return func(c *Config) {
		if isInRange("Server Port", i, 1, 65535) {
			c.Server.Port = i
		}
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of name parsers in the pool.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}
