package nearby

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-medguide-api/internal/geocoding/nominatim"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidateCandidates(t *testing.T) {
	candidates := []Candidate{
		{ID: "node/1", Name: "Toledo Doctors Hospital", Lat: 10.38, Lon: 123.64},
		{ID: "node/2", Name: "   ", Lat: 10.37, Lon: 123.65},
		{ID: "node/3", Lat: 95, Lon: 123},
		{ID: "", Lat: 10, Lon: 123},
		{ID: "node/4", Err: errors.New(`unreadable latitude "abc"`)},
		{ID: "node/1", Name: "dupe", Lat: 10.1, Lon: 123.1},
	}

	points, excluded := validateCandidates(candidates)

	require.Len(t, points, 2)
	assert.Equal(t, "node/1", points[0].ID)
	require.NotNil(t, points[0].Name)
	assert.Equal(t, "Toledo Doctors Hospital", *points[0].Name)
	assert.Nil(t, points[1].Name, "blank names become nil")
	assert.Equal(t, "Unnamed Hospital", points[1].DisplayName(types.CategoryHospital.Placeholder()))

	require.Len(t, excluded, 4)
	assert.Equal(t, "node/3", excluded[0].ID)
	assert.Contains(t, excluded[0].Reason, "out of range")
	assert.Equal(t, "missing id", excluded[1].Reason)
	assert.Contains(t, excluded[2].Reason, "unreadable latitude")
	assert.Equal(t, "duplicate id", excluded[3].Reason)
}

const overpassFixture = `{
  "version": 0.6,
  "osm3s": {"timestamp_osm_base": "2024-05-01T00:00:00Z"},
  "elements": [
    {"type": "node", "id": 30, "lat": 10.3800, "lon": 123.6400, "tags": {"amenity": "hospital", "name": "Toledo Doctors Hospital", "addr:city": "Toledo"}},
    {"type": "node", "id": 10, "lat": 10.3700, "lon": 123.6600, "tags": {"amenity": "hospital"}},
    {"type": "way", "id": 500, "nodes": [101, 102], "tags": {"amenity": "hospital", "name": "Campus"}},
    {"type": "node", "id": 101, "lat": 10.3000, "lon": 123.6000},
    {"type": "node", "id": 102, "lat": 10.3200, "lon": 123.6200}
  ]
}`

func TestOverpassProvider_Nearby(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			query := r.PostForm.Get("data")
			assert.Contains(t, query, `node(around:5000,10.377500,123.650300)["amenity"="hospital"]`)
			assert.Contains(t, query, `way(around:5000`)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(overpassFixture))
		}))
		defer server.Close()

		provider := NewOverpassProvider(server.URL, server.Client(), "hospital", discardLogger())
		candidates, err := provider.Nearby(context.Background(), toledo, 5, 0)
		require.NoError(t, err)

		require.Len(t, candidates, 3)
		assert.Equal(t, "node/10", candidates[0].ID, "nodes are ordered by id")
		assert.Empty(t, candidates[0].Name)
		assert.Equal(t, "node/30", candidates[1].ID)
		assert.Equal(t, "Toledo Doctors Hospital", candidates[1].Name)
		assert.Equal(t, "Toledo", candidates[1].Address)

		way := candidates[2]
		assert.Equal(t, "way/500", way.ID)
		assert.NoError(t, way.Err)
		assert.InDelta(t, 10.31, way.Lat, 1e-9)
		assert.InDelta(t, 123.61, way.Lon, 1e-9)
	})

	t.Run("upstream failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGatewayTimeout)
		}))
		defer server.Close()

		provider := NewOverpassProvider(server.URL, server.Client(), "hospital", discardLogger())
		_, err := provider.Nearby(context.Background(), toledo, 5, 0)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		block := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-block
		}))
		defer server.Close()
		defer close(block)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		provider := NewOverpassProvider(server.URL, server.Client(), "hospital", discardLogger())
		_, err := provider.Nearby(ctx, toledo, 5, 0)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuildAmenityQuery(t *testing.T) {
	q := buildAmenityQuery("pharmacy", types.GeoPoint{Lat: 1.5, Lon: -2.25}, 2.5)
	assert.Contains(t, q, "[out:json]")
	assert.Contains(t, q, `node(around:2500,1.500000,-2.250000)["amenity"="pharmacy"];`)
}

type fakeSearcher struct {
	results []nominatim.SearchResult
	err     error
	query   string
	opts    nominatim.SearchOptions
}

func (f *fakeSearcher) Search(_ context.Context, query string, opts nominatim.SearchOptions) ([]nominatim.SearchResult, error) {
	f.query, f.opts = query, opts
	return f.results, f.err
}

func TestNominatimProvider_Nearby(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		searcher := &fakeSearcher{results: []nominatim.SearchResult{
			{OSMType: "node", OSMID: 7, Name: "Mercury Drug", Lat: "10.3790", Lon: "123.6420", DisplayName: "Mercury Drug, Toledo"},
			{PlaceID: 99, Lat: "not-a-number", Lon: "123.6"},
			{OSMType: "way", OSMID: 8, Lat: "10.38", Lon: "east"},
		}}
		provider := NewNominatimProvider(searcher, "pharmacy", "ph", discardLogger())

		candidates, err := provider.Nearby(context.Background(), toledo, 5, 10)
		require.NoError(t, err)

		assert.Equal(t, "pharmacy", searcher.query)
		assert.Equal(t, 10, searcher.opts.Limit)
		assert.Equal(t, "ph", searcher.opts.CountryCodes)
		require.NotNil(t, searcher.opts.Viewbox)
		assert.Less(t, searcher.opts.Viewbox.MinLat, toledo.Lat)
		assert.Greater(t, searcher.opts.Viewbox.MaxLon, toledo.Lon)

		require.Len(t, candidates, 3)
		assert.Equal(t, "node/7", candidates[0].ID)
		assert.Equal(t, 10.379, candidates[0].Lat)
		assert.Equal(t, "Mercury Drug, Toledo", candidates[0].Address)
		assert.Equal(t, "place/99", candidates[1].ID)
		assert.ErrorContains(t, candidates[1].Err, "latitude")
		assert.ErrorContains(t, candidates[2].Err, "longitude")
	})

	t.Run("search failure", func(t *testing.T) {
		provider := NewNominatimProvider(&fakeSearcher{err: errors.New("boom")}, "pharmacy", "", discardLogger())
		_, err := provider.Nearby(context.Background(), toledo, 5, 10)
		assert.Error(t, err)
	})

	t.Run("real client against fake server", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"place_id":1,"osm_type":"node","osm_id":5,"lat":"10.378","lon":"123.651","name":"Botika"}]`))
		}))
		defer server.Close()

		client := nominatim.NewClient(server.URL, "", nominatim.WithRateLimit(100))
		provider := NewNominatimProvider(client, "pharmacy", "", discardLogger())
		candidates, err := provider.Nearby(context.Background(), toledo, 5, 10)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Botika", candidates[0].Name)
	})
}

func TestViewboxAround(t *testing.T) {
	box := viewboxAround(types.GeoPoint{Lat: 0, Lon: 0}, kmPerDegree)
	assert.InDelta(t, -1, box.MinLat, 1e-9)
	assert.InDelta(t, 1, box.MaxLat, 1e-9)
	assert.InDelta(t, -1, box.MinLon, 1e-9)
	assert.InDelta(t, 1, box.MaxLon, 1e-9)

	pole := viewboxAround(types.GeoPoint{Lat: 90, Lon: 10}, 10)
	assert.Equal(t, 90.0, pole.MaxLat)
	assert.Equal(t, -180.0, pole.MinLon)
	assert.Equal(t, 180.0, pole.MaxLon)
}
