// Package nameidx finds scientific names in a reference name table using
// exact, trigram and prefix matches.
package nameidx

import (
	"slices"
	"strings"

	"github.com/gnames/gnflore/pkg/ent/norm"
)

// Match is a name from the reference table with its identifier.
type Match struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// Index is an immutable lookup structure over a name table.
type Index struct {
	names    []string
	ids      map[string]string
	normKeys map[string]string
	trigrams map[string]string
	byNorm   map[string]string
	byTri    map[string][]string
}

// New builds an index from a table of names to identifiers.
func New(table map[string]string) *Index {
	res := &Index{
		ids:      make(map[string]string, len(table)),
		normKeys: make(map[string]string, len(table)),
		trigrams: make(map[string]string, len(table)),
		byNorm:   make(map[string]string, len(table)),
		byTri:    make(map[string][]string),
	}
	for name, id := range table {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		res.names = append(res.names, name)
		res.ids[name] = id
	}
	slices.Sort(res.names)
	res.names = slices.Compact(res.names)

	for _, name := range res.names {
		nk := norm.Name(name)
		res.normKeys[name] = nk
		if _, ok := res.byNorm[nk]; !ok {
			res.byNorm[nk] = name
		}
		tri := norm.TrigramKey(name)
		if tri == "" {
			continue
		}
		res.trigrams[name] = tri
		res.byTri[tri] = append(res.byTri[tri], name)
	}
	return res
}

// Len returns the number of names in the index.
func (ix *Index) Len() int {
	return len(ix.names)
}

// ID returns the identifier of a name, comparing normalized forms.
func (ix *Index) ID(name string) (string, bool) {
	canonical, ok := ix.byNorm[norm.Name(name)]
	if !ok {
		return "", false
	}
	return ix.ids[canonical], true
}

// Find resolves a user query to one name. It tries, in order, a match of
// normalized names, a unique trigram key equal to the normalized query,
// and a unique name whose normalized form or trigram key starts with the
// normalized query.
func (ix *Index) Find(query string) (Match, bool) {
	q := norm.Name(query)
	if q == "" {
		return Match{}, false
	}
	if name, ok := ix.byNorm[q]; ok {
		return ix.match(name), true
	}
	if names := ix.byTri[q]; len(names) == 1 {
		return ix.match(names[0]), true
	}

	var found string
	for _, name := range ix.names {
		if !ix.hasPrefix(name, q) {
			continue
		}
		if found != "" {
			return Match{}, false
		}
		found = name
	}
	if found == "" {
		return Match{}, false
	}
	return ix.match(found), true
}

// Suggest returns up to n names, in alphabetical order, whose normalized
// form or trigram key starts with the normalized query.
func (ix *Index) Suggest(query string, n int) []Match {
	q := norm.Name(query)
	if q == "" || n <= 0 {
		return nil
	}
	var res []Match
	for _, name := range ix.names {
		if !ix.hasPrefix(name, q) {
			continue
		}
		res = append(res, ix.match(name))
		if len(res) == n {
			break
		}
	}
	return res
}

func (ix *Index) hasPrefix(name, q string) bool {
	if strings.HasPrefix(ix.normKeys[name], q) {
		return true
	}
	tri := ix.trigrams[name]
	return tri != "" && strings.HasPrefix(tri, q)
}

func (ix *Index) match(name string) Match {
	return Match{Name: name, ID: ix.ids[name]}
}
