package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fridgecal/internal/config"
	"fridgecal/internal/export"
	appLog "fridgecal/internal/log"
	"fridgecal/internal/page"
	"fridgecal/internal/recipes"
	"fridgecal/internal/settings"
)

// Exporter is the view of the export scheduler the server needs.
type Exporter interface {
	Idle() *export.IdleGate
	Stats() export.Stats
	Policy() export.Policy
	InProgress() bool
	Pending() bool
}

// Deps wires the server to the rest of the application. Recipes and Quota
// may be nil; the fridge endpoints then answer 503.
type Deps struct {
	Config   *config.Config
	Page     *page.Controller
	Exporter Exporter
	Settings *settings.Service
	Recipes  *recipes.Client
	Quota    *recipes.QuotaWatcher
}

// Server provides the calendar and fridge HTTP APIs plus the embedded UI.
type Server struct {
	cfg      *config.Config
	page     *page.Controller
	exporter Exporter
	settings *settings.Service
	recipes  *recipes.Client
	quota    *recipes.QuotaWatcher

	router *chi.Mux
}

// embeddedStatic contains the single-page UI.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(d Deps) *Server {
	cfg := d.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:      cfg,
		page:     d.Page,
		exporter: d.Exporter,
		settings: d.Settings,
		recipes:  d.Recipes,
		quota:    d.Quota,
		router:   chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler, with basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="fridgecal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/preview.png", s.handlePreview)
	r.Get("/download.png", s.handleDownload)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Captures wait while these requests mutate calendar state.
			r.Use(s.markBusy)

			r.Get("/calendar", s.handleCalendar)
			r.Put("/calendar", s.handleCalendarUpdate)
			r.Post("/calendar/prev", s.handleCalendarPrev)
			r.Post("/calendar/next", s.handleCalendarNext)
			r.Post("/viewport", s.handleViewport)
			r.Get("/grid", s.handleGrid)
			r.Get("/view", s.handleView)

			r.Get("/events", s.handleEventsList)
			r.Post("/events", s.handleEventCreate)
			r.Get("/events.ics", s.handleEventsICS)
			r.Post("/events/import", s.handleEventsImport)
			r.Post("/events/{id}/edit", s.handleEditBegin)
			r.Delete("/events/edit", s.handleEditCancel)
			r.Put("/events/{id}", s.handleEventUpdate)
			r.Delete("/events/{id}", s.handleEventDelete)
		})

		r.Get("/settings/theme", s.handleThemeGet)
		r.Put("/settings/theme", s.handleThemePut)

		r.Route("/fridge", func(r chi.Router) {
			r.Use(s.requireRecipes)
			r.Get("/ingredients", s.handleIngredients)
			r.Post("/recommend", s.handleRecommend)
			r.Get("/recipes/{id}", s.handleRecipeDetail)
			r.Get("/youtube/{videoId}/steps", s.handleYoutubeSteps)
			r.Get("/quota", s.handleQuota)
		})

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "not found")
		})
	})

	r.Handle("/*", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// markBusy holds the export idle gate for the duration of mutating
// requests.
func (s *Server) markBusy(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead && s.exporter != nil {
			release := s.exporter.Idle().Enter()
			defer release()
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// staticFileServer serves the embedded UI from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}
	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
