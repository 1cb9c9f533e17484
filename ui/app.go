// Package ui serves the curation dashboard: server-rendered pages over the
// product cache with HTMX fragments for the grid, edit modal, and guided-fix
// wizard.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"catalogops/app"
	"catalogops/internal/filter"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// searchQuietPeriod is how long the search endpoint waits out keystrokes
// before running the filter.
const searchQuietPeriod = 300 * time.Millisecond

// App represents the UI application
type App struct {
	router    *chi.Mux
	service   *app.CurationService
	debouncer *filter.Debouncer
	templates *template.Template
}

// NewApp creates a new UI application. The JSON API handler is mounted under
// /api/v1 so the dashboard and scripts share one listener.
func NewApp(service *app.CurationService, api http.Handler) (*App, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"pct": func(n, total int) int {
			if total == 0 {
				return 0
			}
			return n * 100 / total
		},
		"join": strings.Join,
		"scoreClass": func(score int) string {
			switch {
			case score < filter.CriticalBelow:
				return "critical"
			case score < filter.CompleteFrom:
				return "partial"
			default:
				return "complete"
			}
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		debouncer: filter.NewDebouncer(searchQuietPeriod),
		templates: templates,
	}

	a.setupMiddleware()
	a.setupRoutes(api)

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", staticFS)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes(api http.Handler) {
	// Main pages
	a.router.Get("/", a.handleIndex)
	a.router.Get("/collections/{collection}", a.handleDashboard)

	// Collection actions
	a.router.Post("/collections/{collection}/load", a.handleLoad)
	a.router.Post("/collections/{collection}/analysis/refresh", a.handleAnalysisRefresh)
	a.router.Post("/collections/{collection}/sync", a.handleSync)
	a.router.Post("/collections/{collection}/bulk/{operation}", a.handleBulk)
	a.router.Get("/collections/{collection}/export", a.handleExport)

	// HTMX fragment endpoints
	a.router.Get("/collections/{collection}/fragments/grid", a.handleFragmentGrid)
	a.router.Get("/collections/{collection}/fragments/search", a.handleFragmentSearch)
	a.router.Get("/collections/{collection}/fragments/summary", a.handleFragmentSummary)
	a.router.Get("/collections/{collection}/fragments/audit", a.handleFragmentAudit)
	a.router.Get("/collections/{collection}/products/{row}/edit", a.handleFragmentEdit)
	a.router.Post("/collections/{collection}/products/{row}/save", a.handleSave)

	// Guided-fix wizard
	a.router.Post("/collections/{collection}/wizard/start", a.handleWizardStart)
	a.router.Post("/wizard/advance", a.handleWizardAdvance)
	a.router.Post("/wizard/retreat", a.handleWizardRetreat)
	a.router.Post("/wizard/fixed", a.handleWizardFixed)
	a.router.Post("/wizard/exit", a.handleWizardExit)

	// JSON API
	if api != nil {
		a.router.Mount("/api/v1", http.StripPrefix("/api/v1", api))
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}
