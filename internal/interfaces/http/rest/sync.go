package rest

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/application/reconcile"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// SyncResponse carries the report of a pull or push. Partial runs answer
// 207 with the failed operations listed in the report.
type SyncResponse struct {
	Report  *reconcile.Report `json:"report"`
	Summary map[string]any    `json:"summary"`
	Partial bool              `json:"partial"`
	Error   string            `json:"error,omitempty"`
}

// Pull handles POST /datasets/{datasetID}/sync/pull
// @Summary Replace the local copy of a dataset with the remote rows
// @Tags sync
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Success 200 {object} SyncResponse
// @Failure 503 {object} ErrorResponse
// @Router /datasets/{datasetID}/sync/pull [post]
func (h *Handler) Pull(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.Pull(r.Context(), datasetParam(r))
	h.respondSync(w, r, report, err)
}

// Push handles POST /datasets/{datasetID}/sync/push
// @Summary Replace the remote rows of a dataset with the local ones
// @Description With retry=true only the operations that failed in the last partial push are replayed.
// @Tags sync
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param retry query bool false "Replay the failed operations"
// @Success 200 {object} SyncResponse
// @Success 207 {object} SyncResponse
// @Failure 503 {object} ErrorResponse
// @Router /datasets/{datasetID}/sync/push [post]
func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	ds := datasetParam(r)

	var (
		report *reconcile.Report
		err    error
	)
	if r.URL.Query().Get("retry") == "true" {
		h.mu.Lock()
		previous := h.lastPush[ds]
		h.mu.Unlock()
		if previous == nil {
			respondError(w, r, h.logger, appErrors.NewNotFoundError("failed push", ds))
			return
		}
		report, err = h.engine.Retry(r.Context(), previous)
	} else {
		report, err = h.engine.Push(r.Context(), ds)
	}

	h.mu.Lock()
	if reconcile.IsPartialSync(err) {
		h.lastPush[ds] = report
	} else if err == nil {
		delete(h.lastPush, ds)
	}
	h.mu.Unlock()

	h.respondSync(w, r, report, err)
}

func (h *Handler) respondSync(w http.ResponseWriter, r *http.Request, report *reconcile.Report, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, SyncResponse{Report: report, Summary: report.Summary()})
	case reconcile.IsPartialSync(err):
		h.logger.Warn("Partial sync", zap.String("dataset", report.DatasetID), zap.Error(err))
		respondJSON(w, http.StatusMultiStatus, SyncResponse{
			Report:  report,
			Summary: report.Summary(),
			Partial: true,
			Error:   err.Error(),
		})
	default:
		respondError(w, r, h.logger, err)
	}
}
