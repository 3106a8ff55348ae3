// Package secretshandler exposes the encrypted secret store over HTTP
// for application clients. Callers see only coarse failure signals: a
// sealed vault surfaces as 503 "vault sealed" and a blob that fails
// authentication as 500 "decryption failed", never cryptographic
// detail.
package secretshandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/covault/covault/cryptoutils"
	"github.com/covault/covault/metrics"
	"github.com/covault/covault/seal"
	"github.com/covault/covault/secrets"
)

// maxSecretSize bounds a single secret value to keep request bodies and
// backend objects sane.
const maxSecretSize = 1 << 20

// ErrorResponse is the JSON error body for all secret endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler processes application secret requests.
type Handler struct {
	log     *slog.Logger
	store   *secrets.Store
	metrics *metrics.Metrics
}

// NewHandler creates a secrets handler. Metrics may be nil.
func NewHandler(store *secrets.Store, m *metrics.Metrics, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:     log,
		store:   store,
		metrics: m,
	}
}

// RegisterRoutes configures the application API routes on the given
// router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Put("/api/secrets/{name}", h.HandlePut)
	r.Get("/api/secrets/{name}", h.HandleGet)
	r.Delete("/api/secrets/{name}", h.HandleDelete)
}

// HandlePut stores the request body as the secret value under {name}.
//
// Endpoint: PUT /api/secrets/{name}
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "missing secret name")
		return
	}

	value, err := io.ReadAll(io.LimitReader(r.Body, maxSecretSize+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if len(value) > maxSecretSize {
		h.writeError(w, http.StatusRequestEntityTooLarge, "secret too large")
		return
	}

	defer h.observe("put", time.Now())
	if err := h.store.Put(r.Context(), name, value); err != nil {
		h.handleStoreError(w, "put", err)
		return
	}

	h.count("put", "ok")
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet returns the plaintext secret value stored under {name}.
//
// Endpoint: GET /api/secrets/{name}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "missing secret name")
		return
	}

	defer h.observe("get", time.Now())
	value, err := h.store.Get(r.Context(), name)
	if err != nil {
		h.handleStoreError(w, "get", err)
		return
	}

	h.count("get", "ok")
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(value)
}

// HandleDelete removes the secret stored under {name}.
//
// Endpoint: DELETE /api/secrets/{name}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "missing secret name")
		return
	}

	defer h.observe("delete", time.Now())
	if err := h.store.Delete(r.Context(), name); err != nil {
		h.handleStoreError(w, "delete", err)
		return
	}

	h.count("delete", "ok")
	w.WriteHeader(http.StatusNoContent)
}

// handleStoreError maps store failures onto the coarse client-visible
// signals.
func (h *Handler) handleStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, seal.ErrSealed):
		h.count(op, "sealed")
		h.writeError(w, http.StatusServiceUnavailable, "vault sealed")
	case errors.Is(err, secrets.ErrSecretNotFound):
		h.count(op, "not_found")
		h.writeError(w, http.StatusNotFound, "secret not found")
	case errors.Is(err, cryptoutils.ErrAuthenticationFailed):
		h.count(op, "error")
		h.log.Error("Secret decryption failed", slog.String("op", op))
		h.writeError(w, http.StatusInternalServerError, "decryption failed")
	default:
		h.count(op, "error")
		h.log.Error("Secret operation failed", slog.String("op", op), "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) count(op, result string) {
	if h.metrics != nil {
		h.metrics.SecretOperations.WithLabelValues(op, result).Inc()
	}
}

func (h *Handler) observe(op string, start time.Time) {
	if h.metrics != nil {
		h.metrics.SecretOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
