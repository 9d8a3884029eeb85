// Package wkt builds and checks the polygon geometries used as search
// areas by the occurrence search.
package wkt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DegLatKm is the length of one degree of latitude in kilometers.
	DegLatKm = 111.132
	// DegLonKmEquator is the length of one degree of longitude at the
	// equator in kilometers.
	DegLonKmEquator = 111.320
	// DefaultSegments is the number of sides of a circular polygon.
	DefaultSegments = 32
)

// ReachesPole is true when a circle of radiusKm around lat touches or
// crosses a pole. Such circles cannot be drawn as a polygon.
func ReachesPole(lat, radiusKm float64) bool {
	return math.Abs(lat)+radiusKm/DegLatKm >= 90
}

// CircularPolygon approximates a circle of radiusKm around lat/lon with a
// closed polygon of the given number of sides. The result has segments+1
// vertices, the last one repeats the first. Coordinates are written as
// 'lon lat' pairs with five decimal places.
func CircularPolygon(lat, lon, radiusKm float64, segments int) string {
	if segments < 3 {
		segments = DefaultSegments
	}
	latRad := lat * (math.Pi / 180)
	latDelta := radiusKm / DegLatKm
	lonDelta := radiusKm / (DegLonKmEquator * math.Cos(latRad))

	points := make([]string, 0, segments+1)
	for i := range segments {
		angle := float64(i) * 2 * math.Pi / float64(segments)
		x := lon + lonDelta*math.Cos(angle)
		y := lat + latDelta*math.Sin(angle)
		points = append(points, fmt.Sprintf("%.5f %.5f", x, y))
	}
	// closing vertex is the first one, so the ring is closed exactly
	points = append(points, points[0])

	return "POLYGON((" + strings.Join(points, ", ") + "))"
}

// Validate checks that s is a non-empty POLYGON with closed rings of at
// least four numeric vertices. Longitudes must be within [-180, 180] and
// latitudes within [-90, 90].
func Validate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("geometry is empty")
	}
	up := strings.ToUpper(s)
	if !strings.HasPrefix(up, "POLYGON") {
		return fmt.Errorf("geometry is not a POLYGON: %.30q", s)
	}
	body := strings.TrimSpace(s[len("POLYGON"):])
	if !strings.HasPrefix(body, "((") || !strings.HasSuffix(body, "))") {
		return errors.New("polygon rings are not enclosed in double parentheses")
	}
	body = body[2 : len(body)-2]

	rings := splitRings(body)
	for i, ring := range rings {
		if err := validateRing(ring); err != nil {
			return fmt.Errorf("ring %d: %w", i+1, err)
		}
	}
	return nil
}

func splitRings(body string) []string {
	var res []string
	for r := range strings.SplitSeq(body, "),") {
		r = strings.TrimSpace(r)
		r = strings.TrimPrefix(r, "(")
		res = append(res, r)
	}
	return res
}

func validateRing(ring string) error {
	vertices := strings.Split(ring, ",")
	if len(vertices) < 4 {
		return fmt.Errorf("needs at least 4 vertices, got %d", len(vertices))
	}
	var first, last [2]float64
	for i, v := range vertices {
		pt, err := parsePoint(v)
		if err != nil {
			return fmt.Errorf("vertex %d: %w", i+1, err)
		}
		if i == 0 {
			first = pt
		}
		last = pt
	}
	if first != last {
		return errors.New("ring is not closed")
	}
	return nil
}

func parsePoint(s string) ([2]float64, error) {
	var res [2]float64
	fs := strings.Fields(s)
	if len(fs) != 2 {
		return res, fmt.Errorf("expected 'lon lat', got %q", strings.TrimSpace(s))
	}
	for i := range fs {
		f, err := strconv.ParseFloat(fs[i], 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return res, fmt.Errorf("bad coordinate %q", fs[i])
		}
		res[i] = f
	}
	if res[0] < -180 || res[0] > 180 {
		return res, fmt.Errorf("longitude %v is out of range", res[0])
	}
	if res[1] < -90 || res[1] > 90 {
		return res, fmt.Errorf("latitude %v is out of range", res[1])
	}
	return res, nil
}
