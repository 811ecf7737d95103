package daemon

import (
	"errors"
	"net/http"
	"strconv"

	"shuttle/internal/api"
	"shuttle/internal/catalog"
	"shuttle/internal/logging"
	"shuttle/internal/transcode"
)

func (d *Daemon) handleListFiles(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64)
	if err != nil || projectID <= 0 {
		writeError(w, http.StatusBadRequest, "project_id query parameter required")
		return
	}
	records, err := d.store.ListFilesByProject(r.Context(), projectID)
	if err != nil {
		d.logger.Error("file listing failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, api.FileListResponse{Files: api.FileViewsFrom(records)})
}

func (d *Daemon) handleGetFile(w http.ResponseWriter, r *http.Request) {
	record, ok := d.fileFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, api.FileViewFrom(record))
}

func (d *Daemon) handleContent(w http.ResponseWriter, r *http.Request) {
	record, ok := d.fileFromRequest(w, r)
	if !ok {
		return
	}
	d.streamer.Serve(w, r, record)
}

func (d *Daemon) handleRetryFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	if err := d.orchestrator.RetryFailed(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, transcode.ErrFileNotFound):
			writeError(w, http.StatusNotFound, "file not found")
		case errors.Is(err, catalog.ErrNotInFailedState):
			writeError(w, http.StatusConflict, "file is not in failed state")
		default:
			d.logger.Error("file retry failed", logging.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	record, err := d.store.GetFile(r.Context(), id)
	if err != nil || record == nil {
		d.logger.Error("requeued file lookup failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, api.FileViewFrom(record))
}

func (d *Daemon) fileFromRequest(w http.ResponseWriter, r *http.Request) (*catalog.FileRecord, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return nil, false
	}
	record, err := d.store.GetFile(r.Context(), id)
	if err != nil {
		d.logger.Error("file lookup failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "file not found")
		return nil, false
	}
	return record, true
}
