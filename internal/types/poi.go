package types

import (
	"fmt"
	"strings"
)

// GeoPoint is a WGS84 position in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" example:"10.3775"`
	Lon float64 `json:"lon" example:"123.6503"`
}

// Valid reports whether the point lies inside the latitude and longitude ranges.
// NaN components are never valid.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// PointOfInterest is a validated place returned by a map provider.
type PointOfInterest struct {
	ID       string            `json:"id" example:"node/123456"`
	Name     *string           `json:"name"` // nil when the upstream record carried no name
	Location GeoPoint          `json:"location"`
	Address  string            `json:"address,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

// DisplayName returns the name, or placeholder when the point is unnamed.
func (p PointOfInterest) DisplayName(placeholder string) string {
	if p.Name == nil || strings.TrimSpace(*p.Name) == "" {
		return placeholder
	}
	return *p.Name
}

// RankedPoint is a point annotated with its great-circle distance from a search center.
type RankedPoint struct {
	PointOfInterest
	DistanceKm float64 `json:"distance_km" example:"1.27"`
}

type Category string

const (
	CategoryHospital Category = "hospital"
	CategoryPharmacy Category = "pharmacy"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryHospital, CategoryPharmacy:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q: %w", s, ErrValidation)
	}
}

// Placeholder is the label shown for unnamed points of this category.
func (c Category) Placeholder() string {
	switch c {
	case CategoryHospital:
		return "Unnamed Hospital"
	case CategoryPharmacy:
		return "Unnamed Pharmacy"
	default:
		return "Unnamed Place"
	}
}

// NearbyQuery describes one proximity search. Zero values fall back to configured defaults.
type NearbyQuery struct {
	Center   *GeoPoint
	Category Category
	RadiusKm float64
	Limit    int
}

// ExcludedPoint is an upstream record dropped during boundary validation.
type ExcludedPoint struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type NearbyResult struct {
	Center   GeoPoint        `json:"center"`
	Category Category        `json:"category"`
	RadiusKm float64         `json:"radius_km"`
	Pinned   *RankedPoint    `json:"pinned,omitempty"`
	Points   []RankedPoint   `json:"points"`
	Excluded []ExcludedPoint `json:"excluded,omitempty"`
	Cached   bool            `json:"cached"`
}

// CareResult bundles hospital and pharmacy searches around the same center.
type CareResult struct {
	Hospitals  *NearbyResult `json:"hospitals"`
	Pharmacies *NearbyResult `json:"pharmacies"`
}
