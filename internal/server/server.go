// Package server exposes the portfolio data as a JSON API for the
// client-rendered site.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kevinmichaelchen/portfolio/internal/models"
	"github.com/kevinmichaelchen/portfolio/internal/showcase"
)

// Provider is what the handlers read from.
type Provider interface {
	showcase.Provider
	FetchUser(ctx context.Context) *models.UserProfile
	FetchRepository(ctx context.Context, name string) *models.RepositoryRecord
}

type ProjectsResponse struct {
	Tier      showcase.Tier             `json:"tier"`
	Languages []string                  `json:"languages"`
	Projects  []models.RepositoryRecord `json:"projects"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the API routes.
func NewRouter(p Provider, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", handleProjects(p, logger))
		r.Get("/repos", handleRepos(p, logger))
		r.Get("/repos/{name}", handleRepo(p, logger))
		r.Get("/user", handleUser(p, logger))
	})

	return r
}

func handleProjects(p Provider, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repos, tier := showcase.LoadProjects(r.Context(), p)
		writeJSON(w, logger, http.StatusOK, ProjectsResponse{
			Tier:      tier,
			Languages: showcase.Languages(repos),
			Projects:  showcase.Filter(repos, r.URL.Query().Get("filter")),
		})
	}
}

func handleRepos(p Provider, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sort, err := models.ParseSortBy(r.URL.Query().Get("sort"))
		if err != nil {
			writeJSON(w, logger, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, logger, http.StatusOK, p.FetchAll(r.Context(), sort))
	}
}

func handleRepo(p Provider, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo := p.FetchRepository(r.Context(), chi.URLParam(r, "name"))
		if repo == nil {
			writeJSON(w, logger, http.StatusNotFound, errorResponse{Error: "repository not found"})
			return
		}
		writeJSON(w, logger, http.StatusOK, repo)
	}
}

func handleUser(p Provider, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := p.FetchUser(r.Context())
		if user == nil {
			writeJSON(w, logger, http.StatusNotFound, errorResponse{Error: "user not available"})
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).Round(time.Millisecond),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("json encode error", "error", err)
	}
}

// Serve runs the API on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
