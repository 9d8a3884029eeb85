package ioregistry

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnflore/pkg/ent/traits"
	"github.com/gnames/gnfmt"
)

// LoadTraits reads descriptive tables from their sources. Kinds with an
// empty source are skipped, so without sources the table is empty.
func LoadTraits(
	ctx context.Context,
	srcs map[traits.Kind]string,
) (*traits.Table, error) {
	tables := make(map[traits.Kind]map[string]string, len(srcs))
	for kind, src := range srcs {
		if src == "" {
			continue
		}
		data, err := read(ctx, src)
		if err != nil {
			return nil, TraitTableLoadError(kind.String(), src, err)
		}

		var tbl map[string]string
		switch kind {
		case traits.Ecology:
			tbl, err = ParseEcology(data)
		case traits.Criteria:
			tbl, err = ParseCriteria(data)
		default:
			tbl, err = ParseTraitCSV(bytes.NewReader(data))
		}
		if err != nil {
			return nil, TraitTableLoadError(kind.String(), src, err)
		}
		tables[kind] = tbl
		slog.Info("Trait table loaded",
			"kind", kind.String(),
			"source", src,
			"names", humanize.Comma(int64(len(tbl))),
		)
	}
	return traits.New(tables), nil
}

// ParseEcology decodes a JSON object of names to ecology descriptions.
// Keys may carry extra fields after a semicolon, only the part before it
// is the name. Values that are not strings are kept as JSON.
func ParseEcology(data []byte) (map[string]string, error) {
	var raw map[string]any
	enc := gnfmt.GNjson{}
	if err := enc.Decode(bytes.TrimPrefix(data, bom), &raw); err != nil {
		return nil, err
	}

	res := make(map[string]string, len(raw))
	for k, v := range raw {
		name, _, _ := strings.Cut(k, ";")
		name = strings.TrimSpace(name)
		if name == "" || v == nil {
			continue
		}
		switch desc := v.(type) {
		case string:
			res[name] = strings.TrimSpace(desc)
		default:
			bs, err := enc.Encode(desc)
			if err != nil {
				return nil, err
			}
			res[name] = string(bs)
		}
	}
	return res, nil
}

type criterion struct {
	Species     string `json:"species"`
	Description string `json:"description"`
}

// ParseCriteria decodes a JSON array of herbarium identification
// criteria, each with a species and a description.
func ParseCriteria(data []byte) (map[string]string, error) {
	var raw []criterion
	enc := gnfmt.GNjson{}
	if err := enc.Decode(bytes.TrimPrefix(data, bom), &raw); err != nil {
		return nil, err
	}

	res := make(map[string]string, len(raw))
	for _, v := range raw {
		name := strings.TrimSpace(v.Species)
		if name == "" {
			continue
		}
		res[name] = strings.TrimSpace(v.Description)
	}
	return res, nil
}

// ParseTraitCSV reads semicolon-delimited 'name;description' rows. Extra
// columns are ignored, rows without a name are skipped.
func ParseTraitCSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	res := make(map[string]string)
	line := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			slog.Warn("Skipping malformed trait row", "line", line, "error", err)
			continue
		}
		if len(row) < 2 {
			continue
		}
		name := row[0]
		if line == 1 {
			name = strings.TrimPrefix(name, string(bom))
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		res[name] = strings.TrimSpace(row[1])
	}
	return res, nil
}
