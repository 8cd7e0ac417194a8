package nearby

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// InvalidCoordinateError lists every coordinate that made a Rank call fail.
// It unwraps to types.ErrInvalidCoordinate.
type InvalidCoordinateError struct {
	Center   bool
	PointIDs []string
}

func (e *InvalidCoordinateError) Error() string {
	var parts []string
	if e.Center {
		parts = append(parts, "center")
	}
	if len(e.PointIDs) > 0 {
		parts = append(parts, "points ["+strings.Join(e.PointIDs, ", ")+"]")
	}
	return fmt.Sprintf("%s: %s out of range", types.ErrInvalidCoordinate, strings.Join(parts, " and "))
}

func (e *InvalidCoordinateError) Unwrap() error {
	return types.ErrInvalidCoordinate
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance in kilometres between a and b.
func Haversine(a, b types.GeoPoint) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*sinLon*sinLon
	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(math.Max(h, 0), 1)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Rank annotates every point with its distance from center and sorts the result
// nearest first. Points at equal distance keep their input order. The input slice
// is not modified.
//
// If the center or any point is out of range the whole batch is rejected with an
// *InvalidCoordinateError naming the offending points.
func Rank(center types.GeoPoint, points []types.PointOfInterest) ([]types.RankedPoint, error) {
	invalid := &InvalidCoordinateError{Center: !center.Valid()}
	for _, p := range points {
		if !p.Location.Valid() {
			invalid.PointIDs = append(invalid.PointIDs, p.ID)
		}
	}
	if invalid.Center || len(invalid.PointIDs) > 0 {
		return nil, invalid
	}

	ranked := make([]types.RankedPoint, len(points))
	for i, p := range points {
		ranked[i] = types.RankedPoint{
			PointOfInterest: p,
			DistanceKm:      Haversine(center, p.Location),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	return ranked, nil
}
