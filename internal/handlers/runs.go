package handlers

import (
	"net/http"
	"strconv"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/pkg/common/response"
)

const defaultRunsLimit = 20

// ListRunsHandler returns recent run history. Only available when the
// history store is configured.
func (hr *HandlerRepo) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if hr.queries == nil {
		response.JSON(w, http.StatusNotFound, nil, true, "run history is not configured")
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := hr.queries.ListRecentRuns(r.Context(), limit)
	if err != nil {
		hr.logger.Error("failed to list runs", "err", err)
		response.JSON(w, http.StatusInternalServerError, nil, true, "failed to list runs")
		return
	}

	response.JSON(w, http.StatusOK, runs, false, "list runs successfully")
}

func (hr *HandlerRepo) HealthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"}, false, "healthy")
}
