package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/afrifurn-storefront/api/controllers"
	"github.com/angelmondragon/afrifurn-storefront/api/middleware"
	"github.com/angelmondragon/afrifurn-storefront/internal/catalog"
	"github.com/angelmondragon/afrifurn-storefront/pkg/config"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/redis"
)

// NewRouter mounts the storefront browse API. cache may be nil when redis is not configured;
// gatherer may be nil to fall back to the default prometheus registry.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	cache redis.Pinger,
	source catalog.Catalog,
	sessions controllers.BrowseSessions,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, cache, logg))
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(source, cfg.Browse.PageSize, logg))
			r.Get("/{shortName}", controllers.GetProduct(source, logg))
		})
		r.Get("/facets", controllers.ListFacets(source, logg))

		r.Route("/browse/sessions", func(r chi.Router) {
			r.Post("/", controllers.CreateBrowseSession(sessions, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.GetBrowseSession(sessions, logg))
				r.Delete("/", controllers.DeleteBrowseSession(sessions, logg))
				r.Patch("/filters", controllers.UpdateBrowseFilters(sessions, logg))
				r.Post("/reset", controllers.ResetBrowseSession(sessions, logg))
				r.Post("/refresh", controllers.RefreshBrowseSession(sessions, logg))
			})
		})
	})

	return r
}
