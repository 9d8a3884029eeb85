// Package iogbif requests pages of occurrence records from the GBIF
// occurrence search API.
package iogbif

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gnames/gnflore/internal/iometrics"
	"github.com/gnames/gnflore/pkg/aggregate"
	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnfmt"
)

const service = "gbif"

// maxBody limits the size of a single page response.
const maxBody = 64 << 20

type client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	enc        gnfmt.Encoder
	metrics    *iometrics.Metrics
}

// New creates an occurrence searcher. Every request is limited by
// cfg.GBIF.TimeoutSec, retries are left to the caller.
func New(cfg *config.Config, m *iometrics.Metrics) aggregate.Searcher {
	return &client{
		baseURL:    cfg.GBIF.BaseURL,
		timeout:    time.Duration(cfg.GBIF.TimeoutSec) * time.Second,
		httpClient: &http.Client{},
		enc:        gnfmt.GNjson{},
		metrics:    m,
	}
}

// Search requests one page. Non-2xx responses, transport and decoding
// errors are all returned as errors, so the caller can retry them.
func (c *client) Search(
	ctx context.Context,
	q occ.SearchQuery,
	limit, offset int,
) (occ.Page, error) {
	var res occ.Page

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.searchURL(q, limit, offset)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return res, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(service, "transport_error", time.Since(start))
		slog.Warn("Occurrence search request failed",
			"offset", offset, "error", err)
		return res, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveUpstream(service, "http_error", time.Since(start))
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("Occurrence search returned error status",
			"status", resp.StatusCode, "offset", offset, "body", string(body))
		return res, &StatusError{Code: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		c.metrics.ObserveUpstream(service, "transport_error", time.Since(start))
		return res, err
	}
	if err = c.enc.Decode(body, &res); err != nil {
		c.metrics.ObserveUpstream(service, "decode_error", time.Since(start))
		return res, DecodeError(offset, err)
	}

	c.metrics.ObserveUpstream(service, "ok", time.Since(start))
	if limit > 1 {
		c.metrics.AddPage()
		c.metrics.AddRecords(len(res.Results))
	}
	slog.Debug("Occurrence page received",
		"offset", offset,
		"limit", limit,
		"results", len(res.Results),
		"count", res.Count,
	)
	return res, nil
}

func (c *client) searchURL(q occ.SearchQuery, limit, offset int) string {
	v := url.Values{}
	v.Set("geometry", q.Geometry)
	for _, k := range q.TaxonKeys {
		v.Add("taxonKey", strconv.Itoa(k))
	}
	if len(q.TaxonKeys) == 0 && q.KingdomKey > 0 {
		v.Set("kingdomKey", strconv.Itoa(q.KingdomKey))
	}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(offset))
	return fmt.Sprintf("%s/occurrence/search?%s", c.baseURL, v.Encode())
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("occurrence search returned HTTP %d", e.Code)
}
