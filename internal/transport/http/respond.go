package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fedutinova/mcqgen/internal/common"
)

// writeJSON marshals first so a failed encoding never leaves a partial body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// writeError maps err to its status code and client-facing detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	attrs := []any{"method", r.Method, "path", r.URL.Path, "status", status, "error", err}
	switch {
	case common.IsUpstream(err):
		slog.Error("generation service failed", attrs...)
	case status >= http.StatusInternalServerError:
		slog.Error("request failed", attrs...)
	case common.IsValidation(err):
		slog.Info("invalid request", attrs...)
	default:
		slog.Warn("request rejected", attrs...)
	}
	writeDetail(w, status, common.Detail(err))
}
