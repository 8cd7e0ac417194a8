package container

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-medguide-api/app/db"
	appMiddleware "github.com/FACorreiaa/go-medguide-api/app/middleware"
	"github.com/FACorreiaa/go-medguide-api/config"
	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/api/auth"
	"github.com/FACorreiaa/go-medguide-api/internal/api/medication"
	"github.com/FACorreiaa/go-medguide-api/internal/api/nearby"
	"github.com/FACorreiaa/go-medguide-api/internal/api/settings"
	"github.com/FACorreiaa/go-medguide-api/internal/api/symptom"
	"github.com/FACorreiaa/go-medguide-api/internal/api/user"
	"github.com/FACorreiaa/go-medguide-api/internal/geocoding/nominatim"
	"github.com/FACorreiaa/go-medguide-api/internal/router"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Router *router.Config
}

// NewContainer connects to Postgres and wires every handler.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		return nil, err
	}

	routes, err := NewRouterConfig(cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Container{
		Config: cfg,
		Logger: logger,
		Pool:   pool,
		Router: routes,
	}, nil
}

// NewRouterConfig builds repositories, services and handlers on top of db.
func NewRouterConfig(cfg *config.Config, db api.Querier, logger *slog.Logger) (*router.Config, error) {
	// Accounts
	authRepo := auth.NewPostgresAuthRepo(db, logger)
	authService := auth.NewAuthService(authRepo, cfg, logger)
	authHandler := auth.NewAuthHandler(authService, logger)

	userRepo := user.NewPostgresUserRepo(db, logger)
	userService := user.NewUserService(userRepo, logger)
	userHandler := user.NewUserHandler(userService, logger)

	settingsRepo := settings.NewPostgresSettingsRepo(db, logger)
	settingsService := settings.NewSettingsService(settingsRepo, cfg.Nearby.DefaultRadiusKm, logger)
	settingsHandler := settings.NewSettingsHandler(settingsService, logger)

	medicationRepo := medication.NewPostgresMedicationRepo(db, logger)
	medicationService := medication.NewMedicationService(medicationRepo, logger)
	medicationHandler := medication.NewMedicationHandler(medicationService, logger)

	// Symptoms
	configured := make([]types.AdviceRule, 0, len(cfg.Symptoms.Rules))
	for _, r := range cfg.Symptoms.Rules {
		configured = append(configured, types.AdviceRule{Keyword: r.Keyword, Advice: r.Advice})
	}
	rules, err := symptom.NormalizeRules(configured)
	if err != nil {
		return nil, fmt.Errorf("invalid symptom rules: %w", err)
	}
	symptomHandler := symptom.NewSymptomHandler(symptom.NewSymptomService(rules, logger), logger)

	// Nearby
	nearbyService, err := newNearbyService(cfg.Nearby, logger)
	if err != nil {
		return nil, err
	}
	nearbyHandler := nearby.NewNearbyHandler(nearbyService, settingsService, logger)

	return &router.Config{
		AuthHandler:                    authHandler,
		UserHandler:                    userHandler,
		SettingsHandler:                settingsHandler,
		MedicationHandler:              medicationHandler,
		NearbyHandler:                  nearbyHandler,
		SymptomHandler:                 symptomHandler,
		AuthenticateMiddleware:         auth.Authenticate(logger, cfg.JWT),
		OptionalAuthenticateMiddleware: auth.OptionalAuthenticate(logger, cfg.JWT),
		AuthRateLimitMiddleware:        appMiddleware.RateLimitByIP(cfg.RateLimit.AuthRequestsPerMinute, logger),
		AllowedOrigins:                 cfg.Server.AllowedOrigins,
	}, nil
}

func newNearbyService(cfg config.NearbyConfig, logger *slog.Logger) (*nearby.NearbyServiceImpl, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	opts := []nominatim.Option{
		nominatim.WithHTTPClient(httpClient),
		nominatim.WithLogger(logger),
	}
	if cfg.NominatimRateLimit > 0 {
		opts = append(opts, nominatim.WithRateLimit(cfg.NominatimRateLimit))
	}
	geocoder := nominatim.NewClient(cfg.NominatimURL, cfg.ContactEmail, opts...)

	providers := map[types.Category]nearby.Provider{
		types.CategoryHospital: nearby.NewOverpassProvider(cfg.OverpassURL, httpClient, "hospital", logger),
		types.CategoryPharmacy: nearby.NewNominatimProvider(geocoder, "pharmacy", cfg.CountryCodes, logger),
	}

	pinned, err := pinnedEntry(cfg.Pinned)
	if err != nil {
		return nil, err
	}

	return nearby.NewNearbyService(providers, nearby.Options{
		DefaultCenter:   types.GeoPoint{Lat: cfg.DefaultCenter.Lat, Lon: cfg.DefaultCenter.Lon},
		DefaultRadiusKm: cfg.DefaultRadiusKm,
		MaxRadiusKm:     cfg.MaxRadiusKm,
		Limits: map[types.Category]int{
			types.CategoryHospital: cfg.HospitalLimit,
			types.CategoryPharmacy: cfg.PharmacyLimit,
		},
		CacheTTL: cfg.CacheTTL,
		Pinned:   pinned,
	}, logger)
}

func pinnedEntry(cfg config.PinnedConfig) (nearby.PinnedEntry, error) {
	mode, err := nearby.ParsePinnedMode(cfg.Mode)
	if err != nil {
		return nearby.PinnedEntry{}, err
	}
	if mode == nearby.PinnedOff {
		return nearby.PinnedEntry{Mode: nearby.PinnedOff}, nil
	}
	category, err := types.ParseCategory(cfg.Category)
	if err != nil {
		return nearby.PinnedEntry{}, fmt.Errorf("pinned entry: %w", err)
	}

	var name *string
	if cfg.Name != "" {
		n := cfg.Name
		name = &n
	}
	return nearby.PinnedEntry{
		Mode:     mode,
		Category: category,
		Point: types.PointOfInterest{
			ID:       cfg.ID,
			Name:     name,
			Location: types.GeoPoint{Lat: cfg.Lat, Lon: cfg.Lon},
			Address:  cfg.Address,
			Details:  cfg.Details,
		},
	}, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
