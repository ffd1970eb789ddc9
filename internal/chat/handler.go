package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"presence-chat/internal/config"
	"presence-chat/internal/errs"
	"presence-chat/internal/message"
	"presence-chat/internal/participant"
	"presence-chat/internal/security"

	"github.com/go-chi/chi/v5"
)

// HealthChecker reports whether the durable store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler serves the chat HTTP API
type Handler struct {
	participants participant.Service
	messages     message.Service
	health       HealthChecker
	config       *config.ServerConfig
	metrics      *config.ServerMetrics
	validator    *security.InputValidator
	log          *slog.Logger
}

// Deps groups what the handler needs. Health may be nil for stores without a
// connection to check.
type Deps struct {
	Participants participant.Service
	Messages     message.Service
	Health       HealthChecker
	Config       *config.ServerConfig
	Metrics      *config.ServerMetrics
	Log          *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(d Deps) *Handler {
	return &Handler{
		participants: d.Participants,
		messages:     d.Messages,
		health:       d.Health,
		config:       d.Config,
		metrics:      d.Metrics,
		validator:    security.NewInputValidator(d.Config),
		log:          d.Log,
	}
}

// POST /participants
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, "join", fmt.Errorf("%w: invalid json", errs.ErrValidation))
		return
	}

	name, err := h.validator.Name(req.Name)
	if err != nil {
		h.writeError(w, r, "join", err)
		return
	}

	p, err := h.participants.Join(r.Context(), name)
	if err != nil {
		h.writeError(w, r, "join", err)
		return
	}

	writeJSON(w, http.StatusCreated, ParticipantItem{Name: p.Name, LastStatus: p.LastSeen.UnixMilli()})
}

// GET /participants
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	ps, err := h.participants.ListActive(r.Context())
	if err != nil {
		h.writeError(w, r, "list participants", err)
		return
	}

	writeJSON(w, http.StatusOK, toParticipantItems(ps))
}

// POST /status
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := h.participants.Heartbeat(r.Context(), h.caller(r)); err != nil {
		h.writeError(w, r, "heartbeat", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// POST /messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	d, err := h.decodeDraft(r)
	if err != nil {
		h.writeError(w, r, "send message", err)
		return
	}

	msg, err := h.messages.Send(r.Context(), h.caller(r), d)
	if err != nil {
		h.writeError(w, r, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// GET /messages?limit=
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := h.config.DefaultMessageLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, r, "list messages", fmt.Errorf("%w: limit must be a non-negative integer", errs.ErrValidation))
			return
		}
		limit = n
	}

	msgs, err := h.messages.ListVisible(r.Context(), h.caller(r), limit)
	if err != nil {
		h.writeError(w, r, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageList(msgs))
}

// PUT /messages/{id}
func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	d, err := h.decodeDraft(r)
	if err != nil {
		h.writeError(w, r, "edit message", err)
		return
	}

	msg, err := h.messages.Edit(r.Context(), chi.URLParam(r, "id"), h.caller(r), d)
	if err != nil {
		h.writeError(w, r, "edit message", err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// DELETE /messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.Delete(r.Context(), chi.URLParam(r, "id"), h.caller(r)); err != nil {
		h.writeError(w, r, "delete message", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.HealthCheck(r.Context()); err != nil {
			h.log.Warn("⚠️ Store health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metrics.GetMetrics())
}

// caller returns the sanitized identity from the User header. An over-long
// name cannot belong to a participant, so it is passed through and rejected
// by the services.
func (h *Handler) caller(r *http.Request) string {
	raw := r.Header.Get(HeaderUser)
	name, err := h.validator.Name(raw)
	if err != nil {
		return raw
	}
	return name
}

func (h *Handler) decodeDraft(r *http.Request) (message.Draft, error) {
	var d message.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		return d, fmt.Errorf("%w: invalid json", errs.ErrValidation)
	}

	to, err := h.validator.Recipient(d.To)
	if err != nil {
		return d, err
	}
	text, err := h.validator.Text(d.Text)
	if err != nil {
		return d, err
	}

	d.To = to
	d.Text = text
	return d, nil
}
