package nearby

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

// PinnedMode controls how the configured fixed entry appears in results.
type PinnedMode string

const (
	// PinnedOff never adds the fixed entry.
	PinnedOff PinnedMode = "off"
	// PinnedRanked adds the fixed entry as an ordinary point that is ranked by distance.
	PinnedRanked PinnedMode = "ranked"
	// PinnedFirst returns the fixed entry separately so it is always listed first.
	PinnedFirst PinnedMode = "pinned"
)

func ParsePinnedMode(s string) (PinnedMode, error) {
	switch m := PinnedMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return PinnedOff, nil
	case PinnedOff, PinnedRanked, PinnedFirst:
		return m, nil
	default:
		return "", fmt.Errorf("unknown pinned mode %q: %w", s, types.ErrValidation)
	}
}

// PinnedEntry is a place always included in searches of one category, such as
// the local general hospital.
type PinnedEntry struct {
	Mode     PinnedMode
	Category types.Category
	Point    types.PointOfInterest
}

// Validate checks the entry can be ranked. An entry in PinnedOff mode is always valid.
func (e PinnedEntry) Validate() error {
	if e.Mode == PinnedOff || e.Mode == "" {
		return nil
	}
	if e.Point.ID == "" {
		return fmt.Errorf("pinned entry needs an id: %w", types.ErrValidation)
	}
	if !e.Point.Location.Valid() {
		return fmt.Errorf("pinned entry %q: %w", e.Point.ID, types.ErrInvalidCoordinate)
	}
	return nil
}

func (e PinnedEntry) appliesTo(c types.Category) bool {
	return e.Mode != PinnedOff && e.Mode != "" && e.Category == c
}

func generateNearbyCacheKey(category types.Category, center types.GeoPoint, radiusKm float64, limit int) string {
	return fmt.Sprintf("nearby:%s:%f:%f:%f:%d", category, center.Lat, center.Lon, radiusKm, limit)
}

func clonePoint(p types.PointOfInterest) types.PointOfInterest {
	if p.Name != nil {
		name := *p.Name
		p.Name = &name
	}
	p.Details = maps.Clone(p.Details)
	return p
}

// cloneResult copies everything a caller could reach through the result.
func cloneResult(r *types.NearbyResult) *types.NearbyResult {
	out := *r
	out.Points = make([]types.RankedPoint, len(r.Points))
	for i, p := range r.Points {
		p.PointOfInterest = clonePoint(p.PointOfInterest)
		out.Points[i] = p
	}
	out.Excluded = slices.Clone(r.Excluded)
	if r.Pinned != nil {
		pinned := *r.Pinned
		pinned.PointOfInterest = clonePoint(pinned.PointOfInterest)
		out.Pinned = &pinned
	}
	return &out
}
