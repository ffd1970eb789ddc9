package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"presence-chat/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

// writeError answers with the status errs.ToHTTP picks for err
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errs.ToHTTP(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("❌ "+op+" failed", "req_id", RequestIDFrom(r.Context()), "err", err)
		writeJSON(w, status, ErrorResponse{Error: http.StatusText(status)})
		return
	}

	h.log.Debug(op+" rejected", "req_id", RequestIDFrom(r.Context()), "status", status, "err", err)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
