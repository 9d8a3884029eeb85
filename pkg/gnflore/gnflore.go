package gnflore

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/gnames/gnflore/pkg/aggregate"
	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/ent/nameidx"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnflore/pkg/ent/status"
	"github.com/gnames/gnflore/pkg/ent/wkt"
	"github.com/gnames/gnflore/pkg/parserpool"
	"github.com/gnames/gnflore/pkg/refdata"
	"golang.org/x/sync/errgroup"
)

type gnflore struct {
	cfg    *config.Config
	agg    aggregate.Aggregator
	geo    Geocoder
	ref    *refdata.ReferenceData
	parser parserpool.Pool
}

// New creates a Flore instance. The parser pool is optional, without it
// records lacking a species name are ignored for status resolution.
func New(
	cfg *config.Config,
	agg aggregate.Aggregator,
	geo Geocoder,
	ref *refdata.ReferenceData,
	parser parserpool.Pool,
) Flore {
	if ref == nil {
		ref = refdata.New(nil, nil, nil)
	}
	return &gnflore{
		cfg:    cfg,
		agg:    agg,
		geo:    geo,
		ref:    ref,
		parser: parser,
	}
}

func (g *gnflore) Occurrences(
	ctx context.Context,
	q occ.SearchQuery,
) ([]occ.Record, error) {
	return g.agg.Aggregate(ctx, q)
}

func (g *gnflore) Statuses(
	ctx context.Context,
	q StatusQuery,
) (StatusReport, error) {
	if q.RadiusKm == 0 {
		q.RadiusKm = g.cfg.Search.RadiusKm
	}
	res := StatusReport{Query: q}
	if err := q.Validate(); err != nil {
		return res, InvalidLocationError(q, err)
	}

	res.Geometry = wkt.CircularPolygon(
		q.Lat, q.Lon, q.RadiusKm, g.cfg.Search.Segments,
	)
	sq := occ.SearchQuery{
		Geometry:   res.Geometry,
		TaxonKeys:  q.TaxonKeys,
		KingdomKey: g.cfg.GBIF.KingdomKey,
	}

	var juri status.Jurisdiction
	var recs []occ.Record
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		juri, err = g.geo.Jurisdiction(ctx, q.Lat, q.Lon)
		return err
	})
	eg.Go(func() error {
		var err error
		recs, err = g.agg.Aggregate(ctx, sq)
		return err
	})
	if err := eg.Wait(); err != nil {
		return res, err
	}

	res.Jurisdiction = juri
	res.OccurrencesNum = len(recs)

	counts := occ.CountBySpecies(recs, g.canonical)
	names := occ.SpeciesNames(recs, g.canonical)
	res.SpeciesNum = len(names)

	resolved := g.ref.Registry().Resolve(names, juri)
	res.Statuses = make([]SpeciesStatus, 0, len(resolved))
	for name, r := range resolved {
		res.Statuses = append(res.Statuses, SpeciesStatus{
			Resolved:    r,
			Occurrences: counts[name],
		})
	}
	slices.SortFunc(res.Statuses, func(a, b SpeciesStatus) int {
		return strings.Compare(a.Species, b.Species)
	})

	slog.Info("Statuses resolved",
		"region", juri.Region,
		"department", juri.Department,
		"occurrences", res.OccurrencesNum,
		"species", res.SpeciesNum,
		"statuses", len(res.Statuses),
	)
	return res, nil
}

func (g *gnflore) Lookup(name string) (NameInfo, bool) {
	m, ok := g.ref.Names().Find(name)
	if !ok {
		return NameInfo{}, false
	}
	res := NameInfo{Match: m}
	// trait tables use names without authorship
	names := []string{m.Name}
	if g.parser != nil {
		names = append(names, g.parser.Canonical(m.Name))
	}
	names = append(names, name)
	res.Traits, _ = g.ref.Traits().Of(names...)
	return res, true
}

func (g *gnflore) Suggest(query string, n int) []nameidx.Match {
	return g.ref.Names().Suggest(query, n)
}

func (g *gnflore) canonical(name string) string {
	if g.parser == nil {
		return ""
	}
	return g.parser.CanonicalFor(name, g.cfg.GBIF.KingdomKey)
}
