// Package parserpool keeps a pool of gnparser instances to get canonical
// forms of scientific names from occurrence records.
// This is a pure package - parsing is computation, not I/O.
package parserpool

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gnames/gnlib/ent/nomcode"
	"github.com/gnames/gnparser"
	"github.com/gnames/gnparser/ent/parsed"
)

// GBIF backbone kingdom keys that decide the nomenclatural code.
const (
	kingdomAnimalia = 1
	kingdomPlantae  = 6
)

// Pool provides parsers for concurrent use.
type Pool interface {
	// Parse parses a name string with the given nomenclatural code.
	Parse(nameString string, code nomcode.Code) (parsed.Parsed, error)

	// Canonical returns the simple canonical form of a botanical name,
	// or the trimmed input if the name cannot be parsed.
	Canonical(nameString string) string

	// CanonicalFor is Canonical for a name from a given GBIF kingdom.
	CanonicalFor(nameString string, kingdomKey int) string

	// Close shuts down the parser pools and releases resources.
	Close()
}

// PoolImpl implements the Pool interface using gnparser.NewPool.
type PoolImpl struct {
	botanicalCh  chan gnparser.GNparser
	zoologicalCh chan gnparser.GNparser
	poolSize     int
}

// NewPool creates botanical and zoological pools of jobsNum parsers each.
// If jobsNum is 0, it defaults to runtime.NumCPU().
func NewPool(jobsNum int) Pool {
	poolSize := jobsNum
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}

	botanicalCfg := gnparser.NewConfig(
		gnparser.OptCode(nomcode.Botanical),
	)
	zoologicalCfg := gnparser.NewConfig(
		gnparser.OptCode(nomcode.Zoological),
	)

	return &PoolImpl{
		botanicalCh:  gnparser.NewPool(botanicalCfg, poolSize),
		zoologicalCh: gnparser.NewPool(zoologicalCfg, poolSize),
		poolSize:     poolSize,
	}
}

// CodeForKingdom maps a GBIF kingdom key to a nomenclatural code. Plants,
// fungi and unknown kingdoms use the botanical code.
func CodeForKingdom(kingdomKey int) nomcode.Code {
	if kingdomKey == kingdomAnimalia {
		return nomcode.Zoological
	}
	return nomcode.Botanical
}

// Parse takes a parser from the pool of the code, parses the name and
// returns the parser to the pool.
func (p *PoolImpl) Parse(nameString string, code nomcode.Code) (parsed.Parsed, error) {
	var ch chan gnparser.GNparser
	switch code {
	case nomcode.Botanical:
		ch = p.botanicalCh
	case nomcode.Zoological:
		ch = p.zoologicalCh
	default:
		return parsed.Parsed{}, fmt.Errorf("unsupported nomenclatural code: %v", code)
	}

	parser := <-ch
	result := parser.ParseName(nameString)
	ch <- parser

	return result, nil
}

// Canonical returns the botanical canonical form of a name.
func (p *PoolImpl) Canonical(nameString string) string {
	return p.CanonicalFor(nameString, kingdomPlantae)
}

// CanonicalFor returns the canonical form of a name using the code of
// its kingdom.
func (p *PoolImpl) CanonicalFor(nameString string, kingdomKey int) string {
	nameString = strings.TrimSpace(nameString)
	if nameString == "" {
		return ""
	}
	res, err := p.Parse(nameString, CodeForKingdom(kingdomKey))
	if err != nil || !res.Parsed || res.Canonical == nil {
		return nameString
	}
	return res.Canonical.Simple
}

// Close shuts down both parser pools.
func (p *PoolImpl) Close() {
	if p.botanicalCh != nil {
		close(p.botanicalCh)
		for range p.botanicalCh {
		}
	}

	if p.zoologicalCh != nil {
		close(p.zoologicalCh)
		for range p.zoologicalCh {
		}
	}
}
