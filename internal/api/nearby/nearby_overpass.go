package nearby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strings"

	"github.com/serjvanilla/go-overpass"

	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

type overpassQuerier interface {
	Query(query string) (overpass.Result, error)
}

// OverpassProvider finds OSM nodes and ways tagged amenity=<amenity>.
type OverpassProvider struct {
	client  overpassQuerier
	amenity string
	logger  *slog.Logger
}

func NewOverpassProvider(endpoint string, httpClient *http.Client, amenity string, logger *slog.Logger) *OverpassProvider {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &OverpassProvider{
		client:  &client,
		amenity: amenity,
		logger:  logger,
	}
}

func (p *OverpassProvider) Name() string { return "overpass" }

type overpassResponse struct {
	result overpass.Result
	err    error
}

// Nearby queries everything within radiusKm of center. limit is applied after
// ranking, so it is not pushed to Overpass.
func (p *OverpassProvider) Nearby(ctx context.Context, center types.GeoPoint, radiusKm float64, _ int) ([]Candidate, error) {
	query := buildAmenityQuery(p.amenity, center, radiusKm)
	p.logger.DebugContext(ctx, "Querying Overpass", slog.String("amenity", p.amenity), slog.String("center", center.String()))

	// the client has no context support
	done := make(chan overpassResponse, 1)
	go func() {
		res, err := p.client.Query(query)
		done <- overpassResponse{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-done:
		if resp.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", resp.err)
		}
		return convertOverpassResult(resp.result, p.amenity), nil
	}
}

func buildAmenityQuery(amenity string, center types.GeoPoint, radiusKm float64) string {
	meters := int(math.Round(radiusKm * 1000))
	return fmt.Sprintf(`[out:json][timeout:25];
(
  node(around:%d,%f,%f)["amenity"="%s"];
  way(around:%d,%f,%f)["amenity"="%s"];
);
out body;
>;
out skel qt;`,
		meters, center.Lat, center.Lon, amenity,
		meters, center.Lat, center.Lon, amenity)
}

// convertOverpassResult flattens tagged nodes and way centroids into candidates,
// ordered by element ID so results are stable across calls.
func convertOverpassResult(result overpass.Result, amenity string) []Candidate {
	var candidates []Candidate

	nodeIDs := make([]int64, 0, len(result.Nodes))
	for id := range result.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	slices.Sort(nodeIDs)

	for _, id := range nodeIDs {
		node := result.Nodes[id]
		// untagged nodes are way members pulled in by the recurse step
		if node == nil || node.Tags["amenity"] != amenity {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:      fmt.Sprintf("%s/%d", overpass.ElementTypeNode, id),
			Name:    node.Tags["name"],
			Lat:     node.Lat,
			Lon:     node.Lon,
			Address: addressFromTags(node.Tags),
		})
	}

	wayIDs := make([]int64, 0, len(result.Ways))
	for id := range result.Ways {
		wayIDs = append(wayIDs, id)
	}
	slices.Sort(wayIDs)

	for _, id := range wayIDs {
		way := result.Ways[id]
		if way == nil || way.Tags["amenity"] != amenity {
			continue
		}
		c := Candidate{
			ID:      fmt.Sprintf("%s/%d", overpass.ElementTypeWay, id),
			Name:    way.Tags["name"],
			Address: addressFromTags(way.Tags),
		}

		var lat, lon float64
		var count int
		for _, n := range way.Nodes {
			if n == nil {
				continue
			}
			lat += n.Lat
			lon += n.Lon
			count++
		}
		switch {
		case count > 0:
			c.Lat, c.Lon = lat/float64(count), lon/float64(count)
		case way.Bounds != nil:
			c.Lat = (way.Bounds.Min.Lat + way.Bounds.Max.Lat) / 2
			c.Lon = (way.Bounds.Min.Lon + way.Bounds.Max.Lon) / 2
		default:
			c.Err = errors.New("way has no geometry")
		}
		candidates = append(candidates, c)
	}

	return candidates
}

func addressFromTags(tags map[string]string) string {
	var parts []string
	if street := tags["addr:street"]; street != "" {
		if num := tags["addr:housenumber"]; num != "" {
			street = num + " " + street
		}
		parts = append(parts, street)
	}
	for _, key := range []string{"addr:city", "addr:province", "addr:postcode"} {
		if v := tags[key]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
