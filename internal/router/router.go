package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/FACorreiaa/go-medguide-api/internal/api/auth"
	"github.com/FACorreiaa/go-medguide-api/internal/api/medication"
	"github.com/FACorreiaa/go-medguide-api/internal/api/nearby"
	"github.com/FACorreiaa/go-medguide-api/internal/api/settings"
	"github.com/FACorreiaa/go-medguide-api/internal/api/symptom"
	"github.com/FACorreiaa/go-medguide-api/internal/api/user"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	AuthHandler       *auth.AuthHandler
	UserHandler       *user.UserHandler
	SettingsHandler   *settings.SettingsHandler
	MedicationHandler *medication.MedicationHandler
	NearbyHandler     *nearby.NearbyHandler
	SymptomHandler    *symptom.SymptomHandler

	AuthenticateMiddleware         func(http.Handler) http.Handler
	OptionalAuthenticateMiddleware func(http.Handler) http.Handler
	// AuthRateLimitMiddleware guards the credential endpoints.
	AuthRateLimitMiddleware func(http.Handler) http.Handler
	AllowedOrigins          []string
}

// SetupRouter builds the application routes. Server-wide middleware (request ID,
// logging, recoverer, timeout) is applied by the caller before mounting.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8081"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	passthrough := func(next http.Handler) http.Handler { return next }
	rateLimit := cfg.AuthRateLimitMiddleware
	if rateLimit == nil {
		rateLimit = passthrough
	}
	optionalAuth := cfg.OptionalAuthenticateMiddleware
	if optionalAuth == nil {
		optionalAuth = passthrough
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("pong"))
		})

		// Public
		r.Group(func(r chi.Router) {
			r.With(rateLimit).Post("/auth/register", cfg.AuthHandler.Register)
			r.With(rateLimit).Post("/auth/login", cfg.AuthHandler.Login)
			r.With(rateLimit).Post("/auth/refresh", cfg.AuthHandler.RefreshToken)

			r.Post("/symptoms/check", cfg.SymptomHandler.CheckSymptoms)
			r.Get("/symptoms/rules", cfg.SymptomHandler.ListRules)
			r.Get("/first-aid", cfg.SymptomHandler.FirstAidGuide)
		})

		// Signed-in users get their saved search radius
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/nearby/care", cfg.NearbyHandler.SearchCare)
			r.Get("/nearby/{category}", cfg.NearbyHandler.SearchNearby)
			r.Get("/nearby/{category}/export", cfg.NearbyHandler.ExportNearby)
		})

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.With(rateLimit).Put("/auth/password", cfg.AuthHandler.ChangePassword)

			r.Get("/profile", cfg.UserHandler.GetUserProfile)
			r.Put("/profile", cfg.UserHandler.UpdateUserProfile)

			r.Get("/settings", cfg.SettingsHandler.GetSettings)
			r.Put("/settings", cfg.SettingsHandler.UpdateSettings)

			r.Get("/medications", cfg.MedicationHandler.ListReminders)
			r.Post("/medications", cfg.MedicationHandler.AddReminder)
			r.Put("/medications/{id}", cfg.MedicationHandler.UpdateReminder)
			r.Delete("/medications/{id}", cfg.MedicationHandler.DeleteReminder)
		})
	})

	return r
}
