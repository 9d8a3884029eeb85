// Package occ describes occurrence records returned by the occurrence
// search service and the queries that produce them.
package occ

import (
	"math"
	"slices"
	"strings"

	"github.com/gnames/gnflore/pkg/ent/wkt"
)

// PlantaeKey is the kingdom key of plants in the GBIF backbone. It is
// used when a query has no taxon keys.
const PlantaeKey = 6

// Record is one biological observation.
type Record struct {
	Key                 int64    `json:"key"`
	ScientificName      string   `json:"scientificName,omitempty"`
	Species             string   `json:"species,omitempty"`
	SpeciesKey          int64    `json:"speciesKey,omitempty"`
	Family              string   `json:"family,omitempty"`
	Genus               string   `json:"genus,omitempty"`
	DecimalLatitude     *float64 `json:"decimalLatitude,omitempty"`
	DecimalLongitude    *float64 `json:"decimalLongitude,omitempty"`
	EventDate           string   `json:"eventDate,omitempty"`
	BasisOfRecord       string   `json:"basisOfRecord,omitempty"`
	IUCNRedListCategory string   `json:"iucnRedListCategory,omitempty"`
}

// HasCoordinates is true when latitude and longitude are both present,
// finite and within their ranges. Records without coordinates are kept,
// but cannot be placed on a map.
func (r Record) HasCoordinates() bool {
	if r.DecimalLatitude == nil || r.DecimalLongitude == nil {
		return false
	}
	lat, lon := *r.DecimalLatitude, *r.DecimalLongitude
	if math.IsNaN(lat) || math.IsNaN(lon) ||
		math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Page is one response of the occurrence search. Count is reliable only
// for offset 0, EndOfRecords is not reliable at all.
type Page struct {
	Offset       int      `json:"offset"`
	Limit        int      `json:"limit"`
	EndOfRecords bool     `json:"endOfRecords"`
	Count        int      `json:"count"`
	Results      []Record `json:"results"`
}

// SearchQuery describes a search area and optional taxonomic filters.
type SearchQuery struct {
	// Geometry is a WKT polygon.
	Geometry string `json:"geometry"`

	// TaxonKeys restrict the search to given taxa.
	TaxonKeys []int `json:"taxonKeys,omitempty"`

	// KingdomKey restricts the search to a kingdom when TaxonKeys are
	// empty.
	KingdomKey int `json:"kingdomKey,omitempty"`
}

// Validate returns InvalidQuery error if geometry is missing or is not
// a closed polygon.
func (q SearchQuery) Validate() error {
	if err := wkt.Validate(q.Geometry); err != nil {
		return InvalidQueryError(q.Geometry, err)
	}
	return nil
}

// Normalized trims geometry and sets KingdomKey to the given default
// when there are no taxon keys and no kingdom.
func (q SearchQuery) Normalized(defaultKingdom int) SearchQuery {
	q.Geometry = strings.TrimSpace(q.Geometry)
	q.TaxonKeys = slices.Clone(q.TaxonKeys)
	if len(q.TaxonKeys) == 0 && q.KingdomKey == 0 {
		q.KingdomKey = defaultKingdom
	}
	return q
}

// SpeciesNames returns unique species names in the order they first
// appear. When a record has no species, canonical is applied to its
// scientific name, if canonical is not nil.
func SpeciesNames(recs []Record, canonical func(string) string) []string {
	seen := make(map[string]struct{})
	var res []string
	for _, r := range recs {
		name := strings.TrimSpace(r.Species)
		if name == "" && canonical != nil && r.ScientificName != "" {
			name = strings.TrimSpace(canonical(r.ScientificName))
		}
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		res = append(res, name)
	}
	return res
}

// CountBySpecies counts records per species name. It uses the same
// naming rules as SpeciesNames.
func CountBySpecies(
	recs []Record,
	canonical func(string) string,
) map[string]int {
	res := make(map[string]int)
	for _, r := range recs {
		name := strings.TrimSpace(r.Species)
		if name == "" && canonical != nil && r.ScientificName != "" {
			name = strings.TrimSpace(canonical(r.ScientificName))
		}
		if name != "" {
			res[name]++
		}
	}
	return res
}

// WithCoordinates returns records that can be placed on a map.
func WithCoordinates(recs []Record) []Record {
	var res []Record
	for _, r := range recs {
		if r.HasCoordinates() {
			res = append(res, r)
		}
	}
	return res
}
