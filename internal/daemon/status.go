package daemon

import (
	"net/http"
	"os"

	"shuttle/internal/api"
	"shuttle/internal/logging"
)

func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts, err := d.store.CountFilesByStatus(ctx)
	if err != nil {
		d.logger.Error("status counts failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	d.updateStatusGauges(counts)

	sessions, err := d.store.CountSessions(ctx)
	if err != nil {
		d.logger.Error("session count failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	projects, err := d.store.ListProjects(ctx)
	if err != nil {
		d.logger.Error("project count failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	byStatus := make(map[string]int, len(counts))
	for status, count := range counts {
		byStatus[string(status)] = count
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		DatabasePath:   d.store.Path(),
		LockFilePath:   d.lockPath,
		FilesByStatus:  byStatus,
		ActiveSessions: sessions,
		Projects:       len(projects),
	})
}
