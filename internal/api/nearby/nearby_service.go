package nearby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-medguide-api/app/observability/metrics"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

var _ NearbyService = (*NearbyServiceImpl)(nil)

type NearbyService interface {
	// Search ranks places of one category around a center, nearest first.
	Search(ctx context.Context, query types.NearbyQuery) (*types.NearbyResult, error)
	// SearchCare runs the hospital and pharmacy searches concurrently.
	SearchCare(ctx context.Context, query types.NearbyQuery) (*types.CareResult, error)
	// Export renders a search as an XLSX workbook.
	Export(ctx context.Context, query types.NearbyQuery) ([]byte, error)
}

// Options carries the configured defaults for nearby searches.
type Options struct {
	DefaultCenter   types.GeoPoint
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	Limits          map[types.Category]int
	CacheTTL        time.Duration
	Pinned          PinnedEntry
}

type NearbyServiceImpl struct {
	logger    *slog.Logger
	providers map[types.Category]Provider
	cache     *cache.Cache
	opts      Options
}

func NewNearbyService(providers map[types.Category]Provider, opts Options, logger *slog.Logger) (*NearbyServiceImpl, error) {
	if !opts.DefaultCenter.Valid() {
		return nil, fmt.Errorf("default center %s: %w", opts.DefaultCenter, types.ErrInvalidCoordinate)
	}
	if err := opts.Pinned.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxRadiusKm <= 0 {
		opts.MaxRadiusKm = 50
	}
	if opts.DefaultRadiusKm <= 0 || opts.DefaultRadiusKm > opts.MaxRadiusKm {
		opts.DefaultRadiusKm = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}

	return &NearbyServiceImpl{
		logger:    logger,
		providers: providers,
		cache:     cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		opts:      opts,
	}, nil
}

func (s *NearbyServiceImpl) Search(ctx context.Context, query types.NearbyQuery) (*types.NearbyResult, error) {
	ctx, span := otel.Tracer("NearbyService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("nearby.category", string(query.Category)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Search"), slog.String("category", string(query.Category)))

	provider, ok := s.providers[query.Category]
	if !ok {
		err := fmt.Errorf("no provider for category %q: %w", query.Category, types.ErrValidation)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unknown category")
		return nil, err
	}

	center := s.opts.DefaultCenter
	if query.Center != nil {
		center = *query.Center
	}
	if !center.Valid() {
		err := &InvalidCoordinateError{Center: true}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid center")
		return nil, err
	}

	radius := query.RadiusKm
	// also catches NaN
	if !(radius > 0) {
		radius = s.opts.DefaultRadiusKm
	}
	radius = min(radius, s.opts.MaxRadiusKm)

	limit := query.Limit
	if limit <= 0 {
		limit = s.opts.Limits[query.Category]
	}

	span.SetAttributes(
		attribute.Float64("nearby.center.lat", center.Lat),
		attribute.Float64("nearby.center.lon", center.Lon),
		attribute.Float64("nearby.radius_km", radius),
		attribute.Int("nearby.limit", limit),
	)
	searchAttrs := metric.WithAttributes(attribute.String("category", string(query.Category)))

	cacheKey := generateNearbyCacheKey(query.Category, center, radius, limit)
	if cached, found := s.cache.Get(cacheKey); found {
		if result, ok := cached.(*types.NearbyResult); ok {
			l.DebugContext(ctx, "Serving nearby search from cache", slog.String("key", cacheKey))
			metrics.Get().NearbyCacheHitsTotal.Add(ctx, 1, searchAttrs)
			metrics.Get().NearbySearchesTotal.Add(ctx, 1, searchAttrs)
			span.SetAttributes(attribute.Bool("nearby.cached", true))
			span.SetStatus(codes.Ok, "Served from cache")
			hit := cloneResult(result)
			hit.Cached = true
			return hit, nil
		}
	}

	start := time.Now()
	candidates, err := provider.Nearby(ctx, center, radius, limit)
	metrics.Get().NearbyUpstreamDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("provider", provider.Name())))
	if err != nil {
		l.ErrorContext(ctx, "Upstream provider failed", slog.String("provider", provider.Name()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provider failed")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w: %w", provider.Name(), types.ErrUpstream, err)
	}

	points, excluded := validateCandidates(candidates)
	if len(excluded) > 0 {
		l.WarnContext(ctx, "Dropped upstream places with unusable data", slog.Int("excluded", len(excluded)))
		metrics.Get().NearbyExcludedPointsTotal.Add(ctx, int64(len(excluded)), searchAttrs)
	}

	result := &types.NearbyResult{
		Center:   center,
		Category: query.Category,
		RadiusKm: radius,
		Excluded: excluded,
	}

	pinned := s.opts.Pinned
	pinnedID := ""
	if pinned.appliesTo(query.Category) {
		switch pinned.Mode {
		case PinnedRanked:
			points = append(points, clonePoint(pinned.Point))
			pinnedID = pinned.Point.ID
		case PinnedFirst:
			result.Pinned = &types.RankedPoint{
				PointOfInterest: clonePoint(pinned.Point),
				DistanceKm:      Haversine(center, pinned.Point.Location),
			}
		}
	}

	ranked, err := Rank(center, points)
	if err != nil {
		l.ErrorContext(ctx, "Failed to rank places", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rank failed")
		return nil, fmt.Errorf("error ranking places: %w", err)
	}

	result.Points = make([]types.RankedPoint, 0, len(ranked))
	for _, p := range ranked {
		// bounding-box providers return corners beyond the radius
		if p.DistanceKm > radius && p.ID != pinnedID {
			continue
		}
		if limit > 0 && len(result.Points) == limit {
			break
		}
		result.Points = append(result.Points, p)
	}

	// callers may mutate what they get back
	s.cache.Set(cacheKey, cloneResult(result), cache.DefaultExpiration)
	metrics.Get().NearbySearchesTotal.Add(ctx, 1, searchAttrs)

	l.InfoContext(ctx, "Nearby search completed",
		slog.Int("points", len(result.Points)),
		slog.Int("excluded", len(excluded)),
		slog.Float64("radius_km", radius))
	span.SetAttributes(attribute.Int("nearby.results", len(result.Points)))
	span.SetStatus(codes.Ok, "Nearby search completed")
	return result, nil
}

func (s *NearbyServiceImpl) SearchCare(ctx context.Context, query types.NearbyQuery) (*types.CareResult, error) {
	ctx, span := otel.Tracer("NearbyService").Start(ctx, "SearchCare")
	defer span.End()

	var care types.CareResult
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		q := query
		q.Category = types.CategoryHospital
		res, err := s.Search(gctx, q)
		care.Hospitals = res
		return err
	})
	g.Go(func() error {
		q := query
		q.Category = types.CategoryPharmacy
		res, err := s.Search(gctx, q)
		care.Pharmacies = res
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Care search failed", slog.String("method", "SearchCare"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Care search failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Care search completed")
	return &care, nil
}

func (s *NearbyServiceImpl) Export(ctx context.Context, query types.NearbyQuery) ([]byte, error) {
	ctx, span := otel.Tracer("NearbyService").Start(ctx, "Export")
	defer span.End()

	result, err := s.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		return nil, err
	}

	data, err := renderWorkbook(result)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to render workbook", slog.String("method", "Export"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Render failed")
		return nil, fmt.Errorf("error rendering workbook: %w", err)
	}

	span.SetAttributes(attribute.Int("nearby.export_bytes", len(data)))
	span.SetStatus(codes.Ok, "Workbook rendered")
	return data, nil
}
