package ioweb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnflore/pkg/ent/wkt"
	"github.com/gnames/gnflore/pkg/errcode"
	"github.com/gnames/gnflore/pkg/gnflore"
	"github.com/labstack/echo/v4"
)

const (
	defaultSuggestions = 10
	maxSuggestions     = 100
)

// OccurrencesResponse is returned by the occurrences endpoint.
type OccurrencesResponse struct {
	Geometry       string       `json:"geometry"`
	OccurrencesNum int          `json:"occurrencesNum"`
	Occurrences    []occ.Record `json:"occurrences"`
}

// ErrorResponse is the body of failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) root(c echo.Context) error {
	return c.String(http.StatusOK,
		fmt.Sprintf("gnflore %s\nAPI is at %s\n", gnflore.Version, apiPath))
}

func (s *Server) ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (s *Server) version(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"version": gnflore.Version,
		"build":   gnflore.Build,
	})
}

// occurrences takes either a WKT geometry or a point with radius.
func (s *Server) occurrences(c echo.Context) error {
	taxonKeys, err := intParams(c, "taxonKey")
	if err != nil {
		return badRequest(c, err)
	}
	kingdomKey, err := intParam(c, "kingdomKey")
	if err != nil {
		return badRequest(c, err)
	}

	geom := strings.TrimSpace(c.QueryParam("geometry"))
	if geom == "" {
		sq, err := statusQuery(c)
		if err != nil {
			return badRequest(c, err)
		}
		if sq.RadiusKm == 0 {
			sq.RadiusKm = s.cfg.Search.RadiusKm
		}
		if err = sq.Validate(); err != nil {
			return badRequest(c, err)
		}
		geom = wkt.CircularPolygon(
			sq.Lat, sq.Lon, sq.RadiusKm, s.cfg.Search.Segments,
		)
	}

	q := occ.SearchQuery{
		Geometry:   geom,
		TaxonKeys:  taxonKeys,
		KingdomKey: kingdomKey,
	}
	if err = q.Validate(); err != nil {
		return failure(c, err)
	}
	recs, err := s.flore.Occurrences(c.Request().Context(), q)
	if err != nil {
		return failure(c, err)
	}
	if recs == nil {
		recs = []occ.Record{}
	}
	return c.JSON(http.StatusOK, OccurrencesResponse{
		Geometry:       geom,
		OccurrencesNum: len(recs),
		Occurrences:    recs,
	})
}

func (s *Server) statuses(c echo.Context) error {
	q, err := statusQuery(c)
	if err != nil {
		return badRequest(c, err)
	}
	q.TaxonKeys, err = intParams(c, "taxonKey")
	if err != nil {
		return badRequest(c, err)
	}

	res, err := s.flore.Statuses(c.Request().Context(), q)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) names(c echo.Context) error {
	q := c.QueryParam("q")
	limit := defaultSuggestions
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			return badRequest(c, fmt.Errorf("invalid limit %q", l))
		}
		limit = min(n, maxSuggestions)
	}
	res := s.flore.Suggest(q, limit)
	if res == nil {
		return c.JSON(http.StatusOK, []any{})
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) lookup(c echo.Context) error {
	q := c.QueryParam("q")
	m, ok := s.flore.Lookup(q)
	if !ok {
		return c.JSON(http.StatusNotFound,
			ErrorResponse{Error: fmt.Sprintf("name %q not found", q)})
	}
	return c.JSON(http.StatusOK, m)
}

func statusQuery(c echo.Context) (gnflore.StatusQuery, error) {
	var res gnflore.StatusQuery
	var err error
	if res.Lat, err = floatParam(c, "lat", true); err != nil {
		return res, err
	}
	if res.Lon, err = floatParam(c, "lon", true); err != nil {
		return res, err
	}
	if res.RadiusKm, err = floatParam(c, "radius", false); err != nil {
		return res, err
	}
	return res, nil
}

func floatParam(c echo.Context, name string, required bool) (float64, error) {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		if required {
			return 0, fmt.Errorf("parameter %q is required", name)
		}
		return 0, nil
	}
	res, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q is not a number", name)
	}
	return res, nil
}

// intParam reads an optional non-negative integer, zero when absent.
func intParam(c echo.Context, name string) (int, error) {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return 0, nil
	}
	res, err := strconv.Atoi(s)
	if err != nil || res < 0 {
		return 0, fmt.Errorf("parameter %q has a bad value %q", name, s)
	}
	return res, nil
}

func intParams(c echo.Context, name string) ([]int, error) {
	var res []int
	for _, s := range c.QueryParams()[name] {
		for _, v := range strings.Split(s, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			i, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("parameter %q has a bad value %q", name, v)
			}
			res = append(res, i)
		}
	}
	return res, nil
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

func failure(c echo.Context, err error) error {
	return c.JSON(statusCode(err), ErrorResponse{Error: userMessage(err)})
}

// statusCode maps an error to an HTTP status.
func statusCode(err error) int {
	switch errcode.CodeOf(err) {
	case errcode.InvalidQueryError:
		return http.StatusBadRequest
	case errcode.GeocodeUnavailableError:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

var emReplacer = strings.NewReplacer("<em>", "", "</em>", "")

func userMessage(err error) string {
	var gnErr *gn.Error
	if errors.As(err, &gnErr) && gnErr.Msg != "" {
		return emReplacer.Replace(fmt.Sprintf(gnErr.Msg, gnErr.Vars...))
	}
	return err.Error()
}
