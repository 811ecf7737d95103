package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"shuttle/internal/api"
	"shuttle/internal/catalog"
	"shuttle/internal/logging"
	"shuttle/internal/upload"
)

const (
	headerUploadLength = "Upload-Length"
	headerUploadName   = "Upload-Name"
	headerUploadOffset = "Upload-Offset"
	headerUploadFileID = "Upload-File-Id"
)

type createUploadBody struct {
	ProjectID int64  `json:"projectId"`
	Folder    string `json:"folder"`
}

func (d *Daemon) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	length, err := strconv.ParseInt(r.Header.Get(headerUploadLength), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Upload-Length header required")
		return
	}
	name := strings.TrimSpace(r.Header.Get(headerUploadName))

	var body createUploadBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if q := r.URL.Query(); body.ProjectID == 0 {
		body.ProjectID, _ = strconv.ParseInt(q.Get("project_id"), 10, 64)
		if body.Folder == "" {
			body.Folder = q.Get("folder")
		}
	}
	folder, ok := catalog.ParseFolder(body.Folder)
	if !ok {
		writeError(w, http.StatusBadRequest, "folder must be incoming or outgoing")
		return
	}

	session, err := d.receiver.CreateSession(r.Context(), body.ProjectID, folder, name, length)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrInvalidLength):
			writeError(w, http.StatusBadRequest, "upload length must be a non-negative integer")
		case errors.Is(err, upload.ErrInvalidName):
			writeError(w, http.StatusBadRequest, "file name must be a plain name")
		case errors.Is(err, upload.ErrProjectNotFound):
			writeError(w, http.StatusNotFound, "project not found")
		default:
			d.logger.Error("upload session creation failed", logging.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Location", "/api/uploads/"+session.Token)
	w.Header().Set(headerUploadOffset, "0")
	writeJSON(w, http.StatusCreated, api.SessionViewFrom(session))
}

func (d *Daemon) handleUploadOffset(w http.ResponseWriter, r *http.Request) {
	session, err := d.receiver.Offset(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, upload.ErrSessionNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		d.logger.Error("upload offset lookup failed", logging.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set(headerUploadOffset, strconv.FormatInt(session.Offset, 10))
	w.Header().Set(headerUploadLength, strconv.FormatInt(session.Length, 10))
	w.WriteHeader(http.StatusOK)
}

func (d *Daemon) handleAppendChunk(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	offset, err := strconv.ParseInt(r.Header.Get(headerUploadOffset), 10, 64)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "Upload-Offset header required")
		return
	}

	chunk, err := io.ReadAll(io.LimitReader(r.Body, d.cfg.Upload.MaxChunkBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "chunk read failed")
		return
	}

	next, err := d.receiver.AppendChunk(r.Context(), token, offset, chunk)
	if err != nil {
		w.Header().Set(headerUploadOffset, strconv.FormatInt(next, 10))
		switch {
		case errors.Is(err, upload.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "upload session not found")
		case errors.Is(err, upload.ErrOffsetMismatch):
			writeError(w, http.StatusConflict, fmt.Sprintf("offset mismatch, session is at %d", next))
		case errors.Is(err, upload.ErrLengthExceeded):
			writeError(w, http.StatusRequestEntityTooLarge, "chunk exceeds declared upload length")
		case errors.Is(err, upload.ErrChunkTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "chunk exceeds maximum chunk size")
		default:
			d.logger.Error("chunk append failed", logging.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	w.Header().Set(headerUploadOffset, strconv.FormatInt(next, 10))

	// Reaching the declared length finalizes implicitly.
	session, err := d.receiver.Offset(r.Context(), token)
	if err == nil && session.Remaining() == 0 {
		record, err := d.receiver.Finalize(r.Context(), token)
		if err != nil {
			d.logger.Error("implicit finalize failed",
				logging.String(logging.FieldSession, token),
				logging.Error(err))
			writeError(w, http.StatusInternalServerError, "upload complete but finalize failed")
			return
		}
		w.Header().Set(headerUploadFileID, strconv.FormatInt(record.ID, 10))
	}
	w.WriteHeader(http.StatusOK)
}

func (d *Daemon) handleCompleteUpload(w http.ResponseWriter, r *http.Request) {
	record, err := d.receiver.Finalize(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "upload session not found")
		case errors.Is(err, upload.ErrIncompleteUpload):
			writeError(w, http.StatusConflict, "upload is not complete")
		case errors.Is(err, upload.ErrDestinationExists):
			writeError(w, http.StatusConflict, "destination file already exists")
		default:
			d.logger.Error("upload finalize failed", logging.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, api.FileViewFrom(record))
}

func (d *Daemon) handleAbortUpload(w http.ResponseWriter, r *http.Request) {
	if err := d.receiver.Abort(r.Context(), chi.URLParam(r, "token")); err != nil {
		if errors.Is(err, upload.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "upload session not found")
			return
		}
		d.logger.Error("upload abort failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Daemon) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := d.store.ListSessions(r.Context())
	if err != nil {
		d.logger.Error("session listing failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, api.SessionListResponse{Sessions: api.SessionViewsFrom(sessions)})
}
