// Package ioregistry loads reference tables: the BDC status registry,
// the TAXREF name table and descriptive trait tables. All of them can be
// read from a local file or from an http(s) URL.
package ioregistry

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnflore/pkg/ent/nameidx"
	"github.com/gnames/gnflore/pkg/ent/status"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnuuid"
)

const (
	colLevel = "NIVEAU_ADMIN"
	colAdm   = "LB_ADM_TR"
	colName  = "LB_NOM"
	colType  = "LB_TYPE_STATUT"
	colCode  = "CODE_STATUT"
	colLabel = "LABEL_STATUT"
	colDoc   = "CD_DOC"
)

var requiredCols = []string{colAdm, colName, colType, colCode, colLabel}

var bom = []byte{0xEF, 0xBB, 0xBF}

// downloadTimeout limits fetching of remote tables.
const downloadTimeout = 5 * time.Minute

// LoadRegistry reads status records from src and builds a Registry.
func LoadRegistry(ctx context.Context, src string) (*status.Registry, error) {
	data, err := read(ctx, src)
	if err != nil {
		return nil, RegistryLoadError(src, err)
	}

	recs, err := ParseRegistry(bytes.NewReader(data))
	if err != nil {
		return nil, RegistryLoadError(src, err)
	}

	reg := status.NewRegistry(recs)
	slog.Info("Status registry loaded",
		"source", src,
		"records", humanize.Comma(int64(reg.Len())),
		"species", humanize.Comma(int64(reg.SpeciesNum())),
	)
	return reg, nil
}

// ParseRegistry reads semicolon-delimited registry rows. Columns are
// found by their header names. Rows without a species or a jurisdiction
// are skipped.
func ParseRegistry(r io.Reader) ([]status.Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("registry is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, v := range header {
		if i == 0 {
			v = strings.TrimPrefix(v, string(bom))
		}
		idx[strings.TrimSpace(v)] = i
	}

	var missing []string
	for _, col := range requiredCols {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %s", strings.Join(missing, ", "))
	}

	field := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var res []status.Record
	var skipped int
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			slog.Warn("Skipping malformed registry row", "line", line, "error", err)
			skipped++
			continue
		}

		rec := status.Record{
			Level:        field(row, colLevel),
			Jurisdiction: field(row, colAdm),
			Species:      field(row, colName),
			TypeLabel:    field(row, colType),
			Code:         field(row, colCode),
			Label:        field(row, colLabel),
			SourceID:     field(row, colDoc),
		}
		if rec.Species == "" || rec.Jurisdiction == "" {
			skipped++
			continue
		}
		if rec.SourceID == "" {
			rec.SourceID = sourceID(rec)
		}
		res = append(res, rec)
	}

	if skipped > 0 {
		slog.Warn("Some registry rows were skipped", "rows", skipped)
	}
	return res, nil
}

// sourceID makes a stable identifier for rows without a document code.
func sourceID(r status.Record) string {
	key := strings.Join(
		[]string{r.Jurisdiction, r.Species, r.TypeLabel, r.Code}, "|",
	)
	return gnuuid.New(key).String()
}

// LoadNames reads a JSON object of scientific names to identifiers. An
// empty src gives an empty index.
func LoadNames(ctx context.Context, src string) (*nameidx.Index, error) {
	if src == "" {
		return nameidx.New(nil), nil
	}

	data, err := read(ctx, src)
	if err != nil {
		return nil, NameTableLoadError(src, err)
	}

	table, err := ParseNames(data)
	if err != nil {
		return nil, NameTableLoadError(src, err)
	}

	res := nameidx.New(table)
	slog.Info("Name table loaded",
		"source", src,
		"names", humanize.Comma(int64(res.Len())),
	)
	return res, nil
}

// ParseNames decodes a JSON object of names. Identifiers can be strings
// or numbers.
func ParseNames(data []byte) (map[string]string, error) {
	var raw map[string]any
	enc := gnfmt.GNjson{}
	if err := enc.Decode(bytes.TrimPrefix(data, bom), &raw); err != nil {
		return nil, err
	}

	res := make(map[string]string, len(raw))
	for k, v := range raw {
		switch id := v.(type) {
		case string:
			res[k] = id
		case float64:
			res[k] = strconv.FormatFloat(id, 'f', -1, 64)
		case nil:
			res[k] = ""
		default:
			res[k] = fmt.Sprint(id)
		}
	}
	return res, nil
}

// read returns the content of a local file or of a remote document.
func read(ctx context.Context, src string) ([]byte, error) {
	if !isURL(src) {
		return os.ReadFile(src)
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
