package gnflore

import (
	"errors"
	"math"

	"github.com/gnames/gnflore/pkg/ent/nameidx"
	"github.com/gnames/gnflore/pkg/ent/status"
	"github.com/gnames/gnflore/pkg/ent/traits"
	"github.com/gnames/gnflore/pkg/ent/wkt"
)

// StatusQuery is a location with a search radius.
type StatusQuery struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// RadiusKm is the search radius, zero means the configured default.
	RadiusKm float64 `json:"radiusKm,omitempty"`

	// TaxonKeys limit the search to some taxa. Empty means all plants.
	TaxonKeys []int `json:"taxonKeys,omitempty"`
}

// Validate checks that coordinates and radius make sense.
func (q StatusQuery) Validate() error {
	var errs []error
	if math.IsNaN(q.Lat) || q.Lat < -90 || q.Lat > 90 {
		errs = append(errs, errors.New("latitude must be between -90 and 90"))
	}
	if math.IsNaN(q.Lon) || q.Lon < -180 || q.Lon > 180 {
		errs = append(errs, errors.New("longitude must be between -180 and 180"))
	}
	if math.IsNaN(q.RadiusKm) || q.RadiusKm < 0 {
		errs = append(errs, errors.New("radius cannot be negative"))
	}
	if len(errs) == 0 && wkt.ReachesPole(q.Lat, q.RadiusKm) {
		errs = append(errs, errors.New("search circle reaches a pole"))
	}
	return errors.Join(errs...)
}

// SpeciesStatus is the status of a species with the number of its
// occurrences in the searched area.
type SpeciesStatus struct {
	status.Resolved
	Occurrences int `json:"occurrences"`
}

// StatusReport is the result of a status search.
type StatusReport struct {
	Query        StatusQuery         `json:"query"`
	Jurisdiction status.Jurisdiction `json:"jurisdiction"`

	// Geometry is the WKT polygon used for the occurrence search.
	Geometry string `json:"geometry"`

	// OccurrencesNum is the number of occurrence records found.
	OccurrencesNum int `json:"occurrencesNum"`

	// SpeciesNum is the number of distinct species found.
	SpeciesNum int `json:"speciesNum"`

	// Statuses are sorted by species name.
	Statuses []SpeciesStatus `json:"statuses"`
}

// NameInfo is a reference name with its descriptive traits.
type NameInfo struct {
	nameidx.Match
	traits.Traits
}
