// Package traits keeps descriptive data about plants: ecology, herbarium
// identification criteria, physiognomy and phenology. Every table is
// keyed by the normalized scientific name.
package traits

import (
	"maps"
	"slices"

	"github.com/gnames/gnflore/pkg/ent/norm"
)

// Traits are descriptions of a species. Empty fields mean the species
// is absent from the corresponding table.
type Traits struct {
	Ecology     string `json:"ecology,omitempty"`
	Criteria    string `json:"criteria,omitempty"`
	Physiognomy string `json:"physiognomy,omitempty"`
	Phenology   string `json:"phenology,omitempty"`
}

// IsZero is true when no table knows the species.
func (t Traits) IsZero() bool {
	return t == Traits{}
}

// Kind is one of the descriptive tables.
type Kind int

const (
	Ecology Kind = iota
	Criteria
	Physiognomy
	Phenology
)

var kindNames = [...]string{"ecology", "criteria", "physiognomy", "phenology"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Table is an immutable collection of Traits.
type Table struct {
	data map[string]Traits
}

// New builds a Table from name to description maps of every Kind. When
// several names share a normalized key, the first one in alphabetical
// order wins.
func New(tables map[Kind]map[string]string) *Table {
	res := &Table{data: make(map[string]Traits)}
	for kind, tbl := range tables {
		for _, name := range slices.Sorted(maps.Keys(tbl)) {
			desc := tbl[name]
			key := norm.Name(name)
			if key == "" || desc == "" {
				continue
			}
			t := res.data[key]
			field := t.field(kind)
			if field == nil || *field != "" {
				continue
			}
			*field = desc
			res.data[key] = t
		}
	}
	return res
}

func (t *Traits) field(k Kind) *string {
	switch k {
	case Ecology:
		return &t.Ecology
	case Criteria:
		return &t.Criteria
	case Physiognomy:
		return &t.Physiognomy
	case Phenology:
		return &t.Phenology
	}
	return nil
}

// Len returns the number of species with at least one description.
func (tb *Table) Len() int {
	return len(tb.data)
}

// Of returns the traits of the first name that has any. Names are
// compared in their normalized form.
func (tb *Table) Of(names ...string) (Traits, bool) {
	for _, name := range names {
		if t, ok := tb.data[norm.Name(name)]; ok {
			return t, true
		}
	}
	return Traits{}, false
}
