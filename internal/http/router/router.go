package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/config"
	"github.com/ledgerline/crm-api/internal/database"
	"github.com/ledgerline/crm-api/internal/http/handler"
	"github.com/ledgerline/crm-api/internal/http/middleware"
	"github.com/ledgerline/crm-api/internal/metrics"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/ledgerline/crm-api/docs" // Import generated swagger docs
)

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP handlers mounted under /api
type Handlers struct {
	Auth         *handler.AuthHandler
	Clients      *handler.ClientHandler
	Leads        *handler.LeadHandler
	Vendors      *handler.VendorHandler
	Requirements *handler.RequirementHandler
	Quotes       *handler.QuoteHandler
	SalesOrders  *handler.SalesOrderHandler
	Expenses     *handler.ExpenseHandler
	Users        *handler.UserHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
	readiness      map[string]Pinger
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
		readiness:      make(map[string]Pinger),
	}
}

// AddReadinessCheck registers an extra dependency for /health/ready
func (rt *Router) AddReadinessCheck(name string, p Pinger) {
	rt.readiness[name] = p
}

// entityRoutes is the route set shared by every entity collection
type entityRoutes interface {
	List(w http.ResponseWriter, r *http.Request)
	GetByID(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

// mountWrites registers the write routes at prefix on r directly, so the
// read routes of the same collection can live in another group.
func mountWrites(r chi.Router, prefix string, h entityRoutes) {
	r.Post(prefix, h.Create)
	r.Put(prefix, h.Update)
	r.Put(prefix+"/{id}", h.Update)
	r.Delete(prefix, h.Delete)
	r.Delete(prefix+"/{id}", h.Delete)
}

func mountEntity(r chi.Router, prefix string, h entityRoutes) {
	r.Get(prefix, h.List)
	r.Get(prefix+"/{id}", h.GetByID)
	mountWrites(r, prefix, h)
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	if rt.cfg.Metrics.Enabled {
		r.Use(metrics.HTTPMetricsMiddleware)
	}
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	rt.mountHealth(r)

	if rt.cfg.Metrics.Enabled {
		r.Handle(rt.cfg.Metrics.Path, metrics.Handler())
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signin", h.Auth.SignIn)

		// The client directory is readable without a session
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.OptionalAuthenticate)
			r.Use(middleware.RecordCaller)
			r.Get("/clients", h.Clients.List)
			r.Get("/clients/{id}", h.Clients.GetByID)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(middleware.RecordCaller)
			r.Use(rt.rateLimiter.Limit)
			r.Use(middleware.Audit(rt.logger))

			r.Post("/auth/signout", h.Auth.SignOut)
			r.Get("/auth/me", h.Auth.Me)

			mountWrites(r, "/clients", h.Clients)
			mountEntity(r, "/leads", h.Leads)
			r.Get("/vendors/erp-candidates", h.Vendors.ERPCandidates)
			mountEntity(r, "/vendors", h.Vendors)
			mountEntity(r, "/requirements", h.Requirements)
			mountEntity(r, "/quotes", h.Quotes)
			mountEntity(r, "/sales-orders", h.SalesOrders)
			r.Post("/expenses/receipts", h.Expenses.UploadReceipt)
			r.Get("/expenses/receipts/*", h.Expenses.GetReceipt)
			mountEntity(r, "/expenses", h.Expenses)
			mountEntity(r, "/users", h.Users)
		})
	})

	if rt.cfg.Tracing.Endpoint != "" {
		return otelhttp.NewHandler(r, rt.cfg.Tracing.ServiceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
	return r
}

func (rt *Router) mountHealth(r chi.Router) {
	// liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		stats, err := database.HealthCheckWithStats(ctx, rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"service": "database",
				"error":   err.Error(),
			})
			return
		}
		writeHealth(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]interface{})
		healthy := true
		record := func(name string, err error) {
			if err != nil {
				rt.logger.Error("Readiness check failed", zap.String("dependency", name), zap.Error(err))
				checks[name] = map[string]string{"status": "unhealthy", "error": err.Error()}
				healthy = false
				return
			}
			checks[name] = map[string]string{"status": "healthy"}
		}

		record("database", database.HealthCheck(ctx, rt.db))
		for name, p := range rt.readiness {
			record(name, p.Ping(ctx))
		}

		status, code := "healthy", http.StatusOK
		if !healthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		writeHealth(w, code, map[string]interface{}{"status": status, "checks": checks})
	})
}

func writeHealth(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
