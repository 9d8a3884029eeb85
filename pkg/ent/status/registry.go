package status

import (
	"strings"

	"github.com/gnames/gnflore/pkg/ent/norm"
	"github.com/gnames/gnflore/pkg/ent/region"
)

// entry keeps a record together with values precomputed at load time.
type entry struct {
	Record
	typ     Type
	prio    int
	juriKey string
}

// Registry is an index of status records by species. It is immutable
// after NewRegistry returns and is safe for concurrent use.
type Registry struct {
	bySpecies map[string][]entry
	byNorm    map[string][]entry
	size      int
}

// NewRegistry indexes records by species name. The order of records is
// kept, it decides between candidates of equal priority.
func NewRegistry(records []Record) *Registry {
	res := &Registry{
		bySpecies: make(map[string][]entry),
		byNorm:    make(map[string][]entry),
	}
	for _, r := range records {
		name := strings.TrimSpace(r.Species)
		if name == "" {
			continue
		}
		r.Species = name
		e := entry{
			Record:  r,
			typ:     r.Type(),
			prio:    Priority(r),
			juriKey: norm.Name(region.Normalize(r.Jurisdiction)),
		}
		res.bySpecies[name] = append(res.bySpecies[name], e)
		key := norm.Name(name)
		res.byNorm[key] = append(res.byNorm[key], e)
		res.size++
	}
	return res
}

// Len returns the number of indexed records.
func (r *Registry) Len() int {
	return r.size
}

// SpeciesNum returns the number of distinct species names.
func (r *Registry) SpeciesNum() int {
	return len(r.bySpecies)
}

// Records returns records of a species in registry order. Exact name is
// tried first, then its normalized form.
func (r *Registry) Records(name string) []Record {
	es := r.lookup(name)
	res := make([]Record, len(es))
	for i := range es {
		res[i] = es[i].Record
	}
	return res
}

func (r *Registry) lookup(name string) []entry {
	name = strings.TrimSpace(name)
	if es, ok := r.bySpecies[name]; ok {
		return es
	}
	return r.byNorm[norm.Name(name)]
}

// Resolve finds the highest-priority applicable status for each species
// at the given jurisdiction. The result is keyed by the names as they were
// given. Species without applicable statuses are absent from the result.
func (r *Registry) Resolve(
	names []string,
	j Jurisdiction,
) map[string]Resolved {
	res := make(map[string]Resolved)
	regionKey := norm.Name(region.Normalize(j.Region))
	deptKey := norm.Name(j.Department)

	for _, name := range names {
		if _, ok := res[name]; ok {
			continue
		}
		if rs, ok := r.resolveOne(name, regionKey, deptKey); ok {
			res[name] = rs
		}
	}
	return res
}

func (r *Registry) resolveOne(
	name, regionKey, deptKey string,
) (Resolved, bool) {
	var best Resolved
	var found bool
	for _, e := range r.lookup(name) {
		lvl, ok := applies(e, regionKey, deptKey)
		if !ok {
			continue
		}
		// equal priority keeps the earlier record
		if found && e.prio <= best.Priority {
			continue
		}
		best = Resolved{
			Species:      name,
			Code:         e.Code,
			Label:        e.Label,
			TypeLabel:    e.TypeLabel,
			Level:        lvl,
			Jurisdiction: region.Normalize(e.Jurisdiction),
			SourceID:     e.SourceID,
			Priority:     e.prio,
		}
		found = true
	}
	return best, found
}

// applies decides if a record is a candidate for a location and at which
// level.
func applies(e entry, regionKey, deptKey string) (Level, bool) {
	sameRegion := regionKey != "" && e.juriKey == regionKey
	sameDept := deptKey != "" && e.juriKey == deptKey

	switch e.typ {
	case NationalRedList:
		if IsThreatCode(e.Code) {
			return National, true
		}
	case RegionalRedList:
		if IsThreatCode(e.Code) && sameRegion {
			return Regional, true
		}
	case RegionalProtection, RegionalSensitivity:
		if sameRegion {
			return Regional, true
		}
	case DepartmentalProtection, DepartmentalSensitivity:
		if sameDept {
			return Departmental, true
		}
	case NationalProtection, NationalRegulation:
		return National, true
	}
	return UnknownLevel, false
}
