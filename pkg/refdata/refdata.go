// Package refdata keeps reference tables that are loaded once and shared
// by all requests.
package refdata

import (
	"github.com/gnames/gnflore/pkg/ent/nameidx"
	"github.com/gnames/gnflore/pkg/ent/status"
	"github.com/gnames/gnflore/pkg/ent/traits"
)

// ReferenceData holds the status registry, the name index and the trait
// tables. It is immutable after creation and safe for concurrent use.
type ReferenceData struct {
	registry *status.Registry
	names    *nameidx.Index
	traits   *traits.Table
}

// New creates ReferenceData. Nil arguments are replaced with empty
// tables.
func New(
	reg *status.Registry,
	names *nameidx.Index,
	tr *traits.Table,
) *ReferenceData {
	if reg == nil {
		reg = status.NewRegistry(nil)
	}
	if names == nil {
		names = nameidx.New(nil)
	}
	if tr == nil {
		tr = traits.New(nil)
	}
	return &ReferenceData{registry: reg, names: names, traits: tr}
}

// Registry returns the status registry.
func (rd *ReferenceData) Registry() *status.Registry {
	return rd.registry
}

// Names returns the name index.
func (rd *ReferenceData) Names() *nameidx.Index {
	return rd.names
}

// Traits returns descriptive tables of species.
func (rd *ReferenceData) Traits() *traits.Table {
	return rd.traits
}
