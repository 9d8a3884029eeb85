// Package iogeo finds French administrative region and department of a
// coordinate using geo.api.gouv.fr.
package iogeo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gnames/gnflore/internal/iometrics"
	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/ent/region"
	"github.com/gnames/gnflore/pkg/ent/status"
	"github.com/gnames/gnflore/pkg/retry"
	"github.com/gnames/gnfmt"
	"github.com/patrickmn/go-cache"
)

const service = "geo"

var errNoCommune = errors.New("no commune at this location")

// Client resolves coordinates to a jurisdiction. Names of regions and
// departments are cached by their codes.
type Client struct {
	baseURL    string
	timeout    time.Duration
	policy     retry.Policy
	httpClient *http.Client
	cache      *cache.Cache
	enc        gnfmt.Encoder
	metrics    *iometrics.Metrics
}

type commune struct {
	Name           string `json:"nom"`
	Code           string `json:"code"`
	RegionCode     string `json:"codeRegion"`
	DepartmentCode string `json:"codeDepartement"`
}

type area struct {
	Name string `json:"nom"`
	Code string `json:"code"`
}

// New creates a geocoding client.
func New(cfg *config.Config, m *iometrics.Metrics) *Client {
	ttl := time.Duration(cfg.Geo.CacheTTLMin) * time.Minute
	return &Client{
		baseURL: cfg.Geo.BaseURL,
		timeout: time.Duration(cfg.Geo.TimeoutSec) * time.Second,
		policy: retry.Policy{
			MaxAttempts: cfg.Geo.MaxRetries,
			Delay:       time.Duration(cfg.Geo.RetryDelayMs) * time.Millisecond,
		},
		httpClient: &http.Client{},
		cache:      cache.New(ttl, ttl*2),
		enc:        gnfmt.GNjson{},
		metrics:    m,
	}
}

// Jurisdiction returns region and department of a point. Region names
// are normalized to current regions. Any failure is returned as a
// GeocodeUnavailable error.
func (c *Client) Jurisdiction(
	ctx context.Context,
	lat, lon float64,
) (status.Jurisdiction, error) {
	var res status.Jurisdiction

	com, err := c.commune(ctx, lat, lon)
	if err != nil {
		return res, GeocodeUnavailableError(lat, lon, err)
	}

	reg, err := c.area(ctx, "regions", com.RegionCode)
	if err != nil {
		return res, GeocodeUnavailableError(lat, lon, err)
	}

	dept, err := c.area(ctx, "departements", com.DepartmentCode)
	if err != nil {
		return res, GeocodeUnavailableError(lat, lon, err)
	}

	res = status.Jurisdiction{
		Commune:        com.Name,
		Region:         region.Normalize(reg.Name),
		RegionCode:     reg.Code,
		Department:     dept.Name,
		DepartmentCode: dept.Code,
	}
	if err = res.Validate(); err != nil {
		return res, GeocodeUnavailableError(lat, lon, err)
	}

	slog.Debug("Location resolved",
		"lat", lat, "lon", lon,
		"commune", res.Commune,
		"region", res.Region,
		"department", res.Department,
	)
	return res, nil
}

func (c *Client) commune(
	ctx context.Context,
	lat, lon float64,
) (commune, error) {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	v.Set("fields", "nom,code,codeRegion,codeDepartement")
	u := fmt.Sprintf("%s/communes?%s", c.baseURL, v.Encode())

	var coms []commune
	err := c.getJSON(ctx, u, &coms)
	if err != nil {
		return commune{}, err
	}
	if len(coms) == 0 {
		return commune{}, errNoCommune
	}
	com := coms[0]
	if com.RegionCode == "" || com.DepartmentCode == "" {
		return commune{}, fmt.Errorf("incomplete commune data for %q", com.Name)
	}
	return com, nil
}

// area fetches a region or a department by its code.
func (c *Client) area(ctx context.Context, kind, code string) (area, error) {
	key := kind + ":" + code
	if cached, ok := c.cache.Get(key); ok {
		if res, ok := cached.(area); ok {
			return res, nil
		}
	}

	u := fmt.Sprintf("%s/%s/%s", c.baseURL, kind, url.PathEscape(code))
	var res area
	if err := c.getJSON(ctx, u, &res); err != nil {
		return res, err
	}
	if res.Name == "" {
		return res, fmt.Errorf("empty name for %s %s", kind, code)
	}

	c.cache.Set(key, res, cache.DefaultExpiration)
	return res, nil
}

// getJSON fetches and decodes a JSON document. Client errors are not
// retried, server and transport errors are.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	return c.policy.Do(ctx, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
		if err != nil {
			return retry.Permanent(err)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.metrics.ObserveUpstream(service, "transport_error", time.Since(start))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			c.metrics.ObserveUpstream(service, "http_error", time.Since(start))
			err = fmt.Errorf("%s returned HTTP %d", u, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
				resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			c.metrics.ObserveUpstream(service, "transport_error", time.Since(start))
			return err
		}
		if err = c.enc.Decode(body, out); err != nil {
			c.metrics.ObserveUpstream(service, "decode_error", time.Since(start))
			return retry.Permanent(err)
		}
		c.metrics.ObserveUpstream(service, "ok", time.Since(start))
		return nil
	})
}
