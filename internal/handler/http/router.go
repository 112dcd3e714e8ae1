package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psvit/storefront/internal/identity"
	"github.com/psvit/storefront/internal/service"
	"github.com/psvit/storefront/pkg/health"
	"github.com/psvit/storefront/pkg/middleware"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	CartStore      *service.CartStore
	CatalogService *service.CatalogService
	AuthClient     *identity.Client
	Verifier       *identity.Verifier
	Allowlist      *identity.Allowlist
	HealthHandler  *health.Handler
	Logger         *slog.Logger
	CORSOrigins    []string
	Environment    string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.CORSOrigins,
		Environment:    deps.Environment,
	}))

	// Health check endpoints
	r.Get("/health/live", deps.HealthHandler.LivenessHandler())
	r.Get("/health/ready", deps.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(deps.CartStore, deps.Logger)
	catalogHandler := NewCatalogHandler(deps.CatalogService, deps.Logger)
	authHandler := NewAuthHandler(deps.AuthClient, deps.Verifier, deps.Allowlist, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			// no request timeout on /events, the stream is long-lived
			r.Get("/events", cartHandler.Events)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(30 * time.Second))
				r.Use(ContentTypeJSON)

				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.UpdateQuantity)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{productId}", catalogHandler.GetProduct)

			r.Route("/auth", func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/signin", authHandler.SignIn)
				r.Post("/signout", authHandler.SignOut)
				r.Get("/session", authHandler.Session)
			})

			r.Route("/admin/products", func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Use(RequireAdmin(deps.Verifier, deps.Allowlist, deps.Logger))

				r.Post("/", catalogHandler.CreateProduct)
				r.Put("/{productId}", catalogHandler.UpdateProduct)
				r.Delete("/{productId}", catalogHandler.DeleteProduct)
			})
		})
	})

	return r
}
