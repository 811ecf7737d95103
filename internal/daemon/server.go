package daemon

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shuttle/internal/api"
	"shuttle/internal/metrics"
	"shuttle/internal/services"
)

// Router builds the daemon's HTTP surface.
func (d *Daemon) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(metrics.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", d.handleStatus)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", d.handleListProjects)
			r.Post("/", d.handleCreateProject)
			r.Delete("/{id}", d.handleDeleteProject)
			r.Post("/{id}/reconcile", d.handleReconcile)
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Get("/", d.handleListSessions)
			r.Post("/", d.handleCreateUpload)
			r.Head("/{token}", d.handleUploadOffset)
			r.Patch("/{token}", d.handleAppendChunk)
			r.Post("/{token}/complete", d.handleCompleteUpload)
			r.Delete("/{token}", d.handleAbortUpload)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/", d.handleListFiles)
			r.Get("/{id}", d.handleGetFile)
			r.Get("/{id}/content", d.handleContent)
			r.Head("/{id}/content", d.handleContent)
			r.Post("/{id}/retry", d.handleRetryFile)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

// requestID stamps each request with a correlation identifier so log lines
// across components can be tied back to one call.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
