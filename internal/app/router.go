package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/etalasekita/etalase/internal/auth"
	"github.com/etalasekita/etalase/internal/categories"
	"github.com/etalasekita/etalase/internal/dashboard"
	"github.com/etalasekita/etalase/internal/mapview"
	"github.com/etalasekita/etalase/internal/observability"
	"github.com/etalasekita/etalase/internal/products"
	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/internal/smes"
	"github.com/etalasekita/etalase/jobs"
	"github.com/etalasekita/etalase/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
	StorageHost    string
	Guard          *auth.Guard

	AuthHandler       *auth.Handler
	DashboardHandler  *dashboard.Handler
	ProductsHandler   *products.Handler
	SMEsHandler       *smes.Handler
	CategoriesHandler *categories.Handler
	MapHandler        *mapview.Handler
	PublicSMEsHandler *smes.PublicHandler
	JobHandler        *jobs.Handler

	ProductsAPI   *products.API
	SMEsAPI       *smes.API
	CategoriesAPI *categories.API
}

// NewRouter constructs the chi.Router with the console, the public directory and the REST API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	mwCfg := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
		StorageHost:    params.StorageHost,
	}
	for _, mw := range MiddlewareStack(mwCfg) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APICORS(params.Config))
		requireToken := params.Guard.RequireBearer
		r.Route("/products", func(r chi.Router) { params.ProductsAPI.MountRoutes(r, requireToken) })
		r.Route("/smes", func(r chi.Router) { params.SMEsAPI.MountRoutes(r, requireToken) })
		r.Route("/categories", func(r chi.Router) { params.CategoriesAPI.MountRoutes(r, requireToken) })
	})

	r.Group(func(r chi.Router) {
		for _, mw := range BrowserStack(mwCfg) {
			r.Use(mw)
		}

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/smes", http.StatusSeeOther)
		})
		r.Route("/smes", params.PublicSMEsHandler.MountRoutes)

		r.Route("/admin", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(params.Guard.RequireSession)
				params.DashboardHandler.MountRoutes(r)
				r.Route("/products", params.ProductsHandler.MountRoutes)
				r.Route("/smes", params.SMEsHandler.MountRoutes)
				r.Route("/categories", params.CategoriesHandler.MountRoutes)
				r.Route("/map", params.MapHandler.MountRoutes)
				if params.JobHandler != nil {
					r.Route("/jobs", params.JobHandler.MountRoutes)
				}
			})
		})
	})

	staticFS, err := web.StaticFiles()
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static files skip the session and CSRF stack.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for 1 hour in browser.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
