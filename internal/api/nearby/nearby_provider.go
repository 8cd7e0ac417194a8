package nearby

import (
	"context"
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

// Candidate is a place as reported by an upstream map service, before validation.
type Candidate struct {
	ID      string
	Name    string
	Lat     float64
	Lon     float64
	Address string
	// Err is set when the provider could not read the record's coordinates.
	Err error
}

// Provider fetches candidate places of one category around a center.
type Provider interface {
	Name() string
	Nearby(ctx context.Context, center types.GeoPoint, radiusKm float64, limit int) ([]Candidate, error)
}

// validateCandidates turns upstream records into points of interest. Records with
// unreadable or out-of-range coordinates, missing IDs or repeated IDs are
// reported as excluded instead of failing the search.
func validateCandidates(candidates []Candidate) ([]types.PointOfInterest, []types.ExcludedPoint) {
	points := make([]types.PointOfInterest, 0, len(candidates))
	var excluded []types.ExcludedPoint
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		id := strings.TrimSpace(c.ID)
		switch {
		case id == "":
			excluded = append(excluded, types.ExcludedPoint{ID: c.ID, Reason: "missing id"})
			continue
		case c.Err != nil:
			excluded = append(excluded, types.ExcludedPoint{ID: id, Reason: c.Err.Error()})
			continue
		}

		loc := types.GeoPoint{Lat: c.Lat, Lon: c.Lon}
		if !loc.Valid() {
			excluded = append(excluded, types.ExcludedPoint{
				ID:     id,
				Reason: fmt.Sprintf("coordinates out of range (%v, %v)", c.Lat, c.Lon),
			})
			continue
		}
		if _, dup := seen[id]; dup {
			excluded = append(excluded, types.ExcludedPoint{ID: id, Reason: "duplicate id"})
			continue
		}
		seen[id] = struct{}{}

		var name *string
		if n := strings.TrimSpace(c.Name); n != "" {
			name = &n
		}
		points = append(points, types.PointOfInterest{
			ID:       id,
			Name:     name,
			Location: loc,
			Address:  c.Address,
		})
	}
	return points, excluded
}
