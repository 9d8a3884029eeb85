// Package gnflore finds plant occurrences around a location and the
// protection and conservation statuses that apply to them.
package gnflore

import (
	"context"

	"github.com/gnames/gnflore/pkg/ent/nameidx"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnflore/pkg/ent/status"
)

// Geocoder finds region and department of a location.
type Geocoder interface {
	Jurisdiction(ctx context.Context, lat, lon float64) (status.Jurisdiction, error)
}

// Flore is the main use-case interface.
type Flore interface {
	// Occurrences returns every occurrence record matching a search.
	Occurrences(ctx context.Context, q occ.SearchQuery) ([]occ.Record, error)

	// Statuses finds plants recorded around a location and returns those
	// that have a relevant status in the location's region or department.
	Statuses(ctx context.Context, q StatusQuery) (StatusReport, error)

	// Lookup finds a name in the reference name table together with its
	// ecology, herbarium criteria, physiognomy and phenology, when known.
	Lookup(name string) (NameInfo, bool)

	// Suggest returns up to n reference names starting like the query.
	Suggest(query string, n int) []nameidx.Match
}
