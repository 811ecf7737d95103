package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"shuttle/internal/api"
	"shuttle/internal/catalog"
	"shuttle/internal/logging"
	"shuttle/internal/reconcile"
)

func (d *Daemon) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := d.store.ListProjects(r.Context())
	if err != nil {
		d.logger.Error("project listing failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, api.ProjectListResponse{Projects: api.ProjectViewsFrom(projects)})
}

func (d *Daemon) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req api.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		writeError(w, http.StatusBadRequest, "project name must be a plain directory name")
		return
	}

	project, err := d.store.CreateProject(r.Context(), name)
	if err != nil {
		if errors.Is(err, catalog.ErrProjectExists) {
			writeError(w, http.StatusConflict, "project name already exists")
			return
		}
		d.logger.Error("project creation failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, api.ProjectViewFrom(project))
}

func (d *Daemon) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	deleted, err := d.store.DeleteProject(r.Context(), id)
	if err != nil {
		d.logger.Error("project deletion failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Daemon) handleReconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	result, err := d.reconciler.ReconcileProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, reconcile.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		d.logger.Error("reconcile failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, api.ReconcileResponse{
		Added:          result.Added,
		Updated:        result.Updated,
		Removed:        result.Removed,
		OrphansRemoved: result.OrphansRemoved,
		Requeued:       result.RequeuedForVideo,
	})
}
