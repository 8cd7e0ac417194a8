package nearby

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/FACorreiaa/go-medguide-api/internal/geocoding/nominatim"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

// kmPerDegree is the length of one degree of latitude on the Haversine sphere.
const kmPerDegree = EarthRadiusKm * math.Pi / 180

type placeSearcher interface {
	Search(ctx context.Context, query string, opts nominatim.SearchOptions) ([]nominatim.SearchResult, error)
}

// NominatimProvider runs a free-text search ("pharmacy") bounded to a box around the center.
type NominatimProvider struct {
	client       placeSearcher
	query        string
	countryCodes string
	logger       *slog.Logger
}

func NewNominatimProvider(client placeSearcher, query, countryCodes string, logger *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:       client,
		query:        query,
		countryCodes: countryCodes,
		logger:       logger,
	}
}

func (p *NominatimProvider) Name() string { return "nominatim" }

func (p *NominatimProvider) Nearby(ctx context.Context, center types.GeoPoint, radiusKm float64, limit int) ([]Candidate, error) {
	p.logger.DebugContext(ctx, "Querying Nominatim", slog.String("query", p.query), slog.String("center", center.String()))

	results, err := p.client.Search(ctx, p.query, nominatim.SearchOptions{
		CountryCodes: p.countryCodes,
		Limit:        limit,
		Viewbox:      viewboxAround(center, radiusKm),
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		c := Candidate{
			ID:      placeID(r),
			Name:    r.Name,
			Address: r.DisplayName,
		}
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		switch {
		case latErr != nil:
			c.Err = fmt.Errorf("unreadable latitude %q", r.Lat)
		case lonErr != nil:
			c.Err = fmt.Errorf("unreadable longitude %q", r.Lon)
		default:
			c.Lat, c.Lon = lat, lon
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func placeID(r nominatim.SearchResult) string {
	if r.OSMType != "" && r.OSMID != 0 {
		return fmt.Sprintf("%s/%d", r.OSMType, r.OSMID)
	}
	if r.PlaceID != 0 {
		return fmt.Sprintf("place/%d", r.PlaceID)
	}
	return ""
}

// viewboxAround returns the box enclosing the circle of radiusKm around center,
// clamped to valid coordinates.
func viewboxAround(center types.GeoPoint, radiusKm float64) *nominatim.Viewbox {
	dLat := radiusKm / kmPerDegree
	dLon := 180.0
	if cos := math.Cos(toRadians(center.Lat)); cos > 1e-6 {
		dLon = math.Min(dLat/cos, 180)
	}
	return &nominatim.Viewbox{
		MinLat: math.Max(center.Lat-dLat, -90),
		MaxLat: math.Min(center.Lat+dLat, 90),
		MinLon: math.Max(center.Lon-dLon, -180),
		MaxLon: math.Min(center.Lon+dLon, 180),
	}
}
