package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopcase-backend/api/controllers"
	"github.com/angelmondragon/shopcase-backend/api/handlers"
	"github.com/angelmondragon/shopcase-backend/api/middleware"
	"github.com/angelmondragon/shopcase-backend/internal/products"
	"github.com/angelmondragon/shopcase-backend/pkg/config"
	"github.com/angelmondragon/shopcase-backend/pkg/db"
	"github.com/angelmondragon/shopcase-backend/pkg/logger"
	"github.com/angelmondragon/shopcase-backend/pkg/metrics"
	"github.com/angelmondragon/shopcase-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	productService products.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.ExtraCORSOrigins...),
	)

	catalogPolicy := middleware.NewRateLimitPolicy(
		"catalog",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
	)
	// uploads mutate disk and are already bounded by the body limit, so
	// only the read/delete surface is throttled
	var limited func(http.Handler) http.Handler
	if redisClient != nil {
		limited = middleware.RateLimit(catalogPolicy, redisClient, logg)
	} else {
		limited = middleware.RateLimit(catalogPolicy, nil, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", handlers.HealthLive(cfg))
		if redisClient != nil {
			r.Get("/ready", handlers.HealthReady(cfg, logg, dbP, redisClient))
		} else {
			r.Get("/ready", handlers.HealthReady(cfg, logg, dbP))
		}
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	maxBody := cfg.Uploads.MaxUploadBytes()

	r.Route("/api/products", func(r chi.Router) {
		r.With(limited).Get("/", controllers.ListProducts(productService, logg))
		r.Post("/", controllers.CreateProduct(productService, logg, maxBody))

		r.Route("/{id}", func(r chi.Router) {
			r.With(limited).Get("/", controllers.GetProduct(productService, logg))
			r.Put("/", controllers.UpdateProduct(productService, logg, maxBody))
			r.With(limited).Delete("/", controllers.DeleteProduct(productService, logg))
		})
	})

	if cfg.Uploads.Dir != "" {
		prefix := cfg.Uploads.PublicPath
		fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Uploads.Dir)))
		r.Method(http.MethodGet, prefix+"/*", fileServer)
	}

	return r
}
