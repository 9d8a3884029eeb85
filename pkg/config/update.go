package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gnames/gn"
)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for config.yaml.
// Excludes runtime-only HomeDir.
func (c *Config) ToOptions() []Option {
	var res []Option
	var s string
	var i int

	s = c.GBIF.BaseURL
	if s != "" {
		res = append(res, OptGBIFBaseURL(s))
	}
	i = c.GBIF.KingdomKey
	if i > 0 {
		res = append(res, OptGBIFKingdomKey(i))
	}
	i = c.GBIF.PageSize
	if i > 0 {
		res = append(res, OptGBIFPageSize(i))
	}
	i = c.GBIF.BatchSize
	if i > 0 {
		res = append(res, OptGBIFBatchSize(i))
	}
	i = c.GBIF.MaxRetries
	if i > 0 {
		res = append(res, OptGBIFMaxRetries(i))
	}
	res = append(res, OptGBIFRetryDelayMs(c.GBIF.RetryDelayMs))
	i = c.GBIF.TimeoutSec
	if i > 0 {
		res = append(res, OptGBIFTimeoutSec(i))
	}

	s = c.Geo.BaseURL
	if s != "" {
		res = append(res, OptGeoBaseURL(s))
	}
	i = c.Geo.CacheTTLMin
	if i > 0 {
		res = append(res, OptGeoCacheTTLMin(i))
	}
	i = c.Geo.MaxRetries
	if i > 0 {
		res = append(res, OptGeoMaxRetries(i))
	}
	res = append(res, OptGeoRetryDelayMs(c.Geo.RetryDelayMs))
	i = c.Geo.TimeoutSec
	if i > 0 {
		res = append(res, OptGeoTimeoutSec(i))
	}

	s = c.Registry.Path
	if s != "" {
		res = append(res, OptRegistryPath(s))
	}
	s = c.Registry.TaxrefPath
	if s != "" {
		res = append(res, OptRegistryTaxrefPath(s))
	}
	s = c.Registry.EcologyPath
	if s != "" {
		res = append(res, OptRegistryEcologyPath(s))
	}
	s = c.Registry.CriteriaPath
	if s != "" {
		res = append(res, OptRegistryCriteriaPath(s))
	}
	s = c.Registry.PhysiognomyPath
	if s != "" {
		res = append(res, OptRegistryPhysiognomyPath(s))
	}
	s = c.Registry.PhenologyPath
	if s != "" {
		res = append(res, OptRegistryPhenologyPath(s))
	}

	s = c.Scratch.Backend
	if s != "" {
		res = append(res, OptScratchBackend(s))
	}

	if c.Search.RadiusKm > 0 {
		res = append(res, OptSearchRadiusKm(c.Search.RadiusKm))
	}
	i = c.Search.Segments
	if i > 0 {
		res = append(res, OptSearchSegments(i))
	}

	i = c.Server.Port
	if i > 0 {
		res = append(res, OptServerPort(i))
	}

	s = c.Log.Format
	if s != "" {
		res = append(res, OptLogFormat(s))
	}
	s = c.Log.Level
	if s != "" {
		res = append(res, OptLogLevel(s))
	}
	s = c.Log.Destination
	if s != "" {
		res = append(res, OptLogDestination(s))
	}

	i = c.JobsNumber
	if i > 0 {
		res = append(res, OptJobsNumber(i))
	}
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidURL(name, s string) bool {
	if !isValidString(name, s) {
		return false
	}
	res := strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
	if !res {
		gn.Warn("<em>%s</em> has to start with http:// or https://, ignoring %s",
			name, s)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

func isNonNegativeInt(name string, i int) bool {
	res := i >= 0
	if !res {
		gn.Warn("<em>%s</em> cannot be negative, ignoring %d", name, i)
	}
	return res
}

func isInRange(name string, i, min, max int) bool {
	res := i >= min && i <= max
	if !res {
		gn.Warn("<em>%s</em> has to be between %d and %d, ignoring %d",
			name, min, max, i)
	}
	return res
}

func isValidFloat(name string, f float64) bool {
	res := f > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %g", name, f)
	}
	return res
}

func isValidEnum(name, val string) bool {
	s := struct{}{}
	data := map[string]map[string]struct{}{
		"Scratch.Backend": {"file": s, "badger": s, "sqlite": s, "memory": s},
		"Log.Level":       {"debug": s, "info": s, "warn": s, "error": s},
		"Log.Format":      {"json": s, "text": s, "tint": s},
		"Log.Destination": {"file": s, "stderr": s, "stdout": s},
	}
	vals := slices.Sorted(maps.Keys(data[name]))
	var lines []string
	for _, v := range vals {
		line := fmt.Sprintf("  * %s", v)
		lines = append(lines, line)
	}
	if _, ok := data[name][val]; ok {
		return true
	}
	gn.Warn(
		"<em>%s</em> does not support '%s' as a value. "+
			"Valid values are: \n%s\nIgnoring...",
		name, val, strings.Join(lines, "\n"),
	)
	return false
}
