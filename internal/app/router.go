package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"

	"github.com/noah-isme/backend-stock/internal/catalog"
	"github.com/noah-isme/backend-stock/internal/client"
	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/discount"
	"github.com/noah-isme/backend-stock/internal/health"
	"github.com/noah-isme/backend-stock/internal/jobs"
	"github.com/noah-isme/backend-stock/internal/obs"
	"github.com/noah-isme/backend-stock/internal/order"
	"github.com/noah-isme/backend-stock/internal/payterm"
	"github.com/noah-isme/backend-stock/internal/security"
)

// Handlers groups the HTTP handlers mounted under /api/v1. Nil handlers are skipped.
type Handlers struct {
	Products  *catalog.Handler
	Discounts *discount.Handler
	Terms     *payterm.Handler
	Clients   *client.Handler
	Orders    *order.Handler
	Jobs      *jobs.AdminHandler
	Health    health.Handler
}

// RouterConfig carries everything NewRouter needs.
type RouterConfig struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	Production     bool
	Metrics        *obs.HTTPMetrics
	Tracing        bool
	MaxBodyBytes   int64
	// RateLimit and Idempotency wrap /api/v1 and order mutations respectively.
	RateLimit   func(http.Handler) http.Handler
	Idempotency func(http.Handler) http.Handler
	Handlers    Handlers
}

// NewRouter builds the chi router with the middleware chain and every route.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.Production,
	}).Handler)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: cfg.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: cfg.Logger, SkipPaths: []string{"/health", "/metrics"}}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders: []string{"X-Total-Count", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/health/live", cfg.Handlers.Health.Live)
	r.Get("/health/ready", cfg.Handlers.Health.Ready)

	h := cfg.Handlers
	idem := passthrough(cfg.Idempotency)
	r.Route("/api/v1", func(v chi.Router) {
		v.Use(passthrough(cfg.RateLimit))
		v.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)

		if h.Products != nil {
			v.Route("/products", func(p chi.Router) {
				p.Get("/", h.Products.List)
				p.Post("/", h.Products.Create)
				p.Put("/by-code/{code}", h.Products.Upsert)
				p.Get("/{id}", h.Products.Get)
				p.Patch("/{id}", h.Products.Update)
				p.Post("/{id}/stock", h.Products.AdjustStock)
			})
		}
		if h.Discounts != nil {
			v.Route("/discounts", func(d chi.Router) {
				d.Get("/", h.Discounts.List)
				d.Post("/", h.Discounts.Create)
				d.Get("/{id}", h.Discounts.Get)
				d.Patch("/{id}", h.Discounts.Update)
			})
		}
		if h.Terms != nil {
			v.Route("/payment-conditions", func(p chi.Router) {
				p.Get("/", h.Terms.List)
				p.Post("/", h.Terms.Create)
				p.Get("/{id}", h.Terms.Get)
				p.Patch("/{id}", h.Terms.Update)
			})
		}
		if h.Clients != nil {
			v.Route("/clients", func(c chi.Router) {
				c.Get("/", h.Clients.List)
				c.Post("/", h.Clients.Create)
				c.Get("/{id}", h.Clients.Get)
				c.Patch("/{id}", h.Clients.Update)
				c.Delete("/{id}", h.Clients.Delete)
			})
		}
		if h.Orders != nil {
			v.Route("/orders", func(o chi.Router) {
				o.Get("/", h.Orders.List)
				o.Post("/quote", h.Orders.Quote)
				o.Get("/{id}", h.Orders.Get)
				o.Post("/{id}/reconcile", h.Orders.Reconcile)
				o.Group(func(g chi.Router) {
					g.Use(idem)
					g.Post("/", h.Orders.Create)
					g.Delete("/{id}", h.Orders.Delete)
					g.Put("/{id}/items", h.Orders.ReplaceItems)
					g.Post("/{id}/items/by-code", h.Orders.AddItemsByCode)
					g.Patch("/{id}/shipping", h.Orders.UpdateShipping)
					g.Patch("/{id}/status", h.Orders.Transition)
				})
			})
		}
		if h.Jobs != nil {
			v.Route("/admin/jobs", func(j chi.Router) {
				j.Get("/stats", h.Jobs.Stats)
				j.Get("/archived", h.Jobs.ListArchived)
				j.Post("/archived/{id}/retry", h.Jobs.RetryArchived)
			})
		}
	})
	return r
}

func passthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
