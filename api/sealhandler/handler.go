// Package sealhandler exposes the seal state machine over HTTP for
// administrative operators: initialize, unseal, seal, and status.
// Shares cross this boundary only in their encoded token form; raw
// share bytes and the master key never appear in a request or response.
package sealhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/covault/covault/interfaces"
	"github.com/covault/covault/metrics"
	"github.com/covault/covault/seal"
	"github.com/covault/covault/secrets"
	"github.com/covault/covault/shamir"
)

// InitializeRequest is the body of POST /admin/initialize.
type InitializeRequest struct {
	TotalShares int `json:"total_shares"`
	Threshold   int `json:"threshold"`
}

// InitializeResponse returns the one-time share tokens. Operators must
// distribute and store them out of band; the server keeps no copy.
type InitializeResponse struct {
	Shares      []string `json:"shares"`
	Threshold   int      `json:"threshold"`
	TotalShares int      `json:"total_shares"`
}

// UnsealRequest is the body of POST /admin/unseal.
type UnsealRequest struct {
	Share string `json:"share"`
}

// ErrorResponse is the JSON error body for all admin endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler processes administrative seal requests.
type Handler struct {
	log     *slog.Logger
	svc     *seal.Service
	metrics *metrics.Metrics

	// backend, when non-nil, receives non-secret topology metadata on
	// successful initialization so a restarted process knows the vault
	// exists and must be unsealed.
	backend interfaces.StorageBackend
}

// Config carries the handler's dependencies. Metrics and Backend are
// optional.
type Config struct {
	Seal    *seal.Service
	Backend interfaces.StorageBackend
	Metrics *metrics.Metrics
	Log     *slog.Logger
}

// NewHandler creates an admin seal handler.
func NewHandler(cfg Config) *Handler {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:     log,
		svc:     cfg.Seal,
		metrics: cfg.Metrics,
		backend: cfg.Backend,
	}
}

// RegisterRoutes configures the admin API routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/admin/initialize", h.HandleInitialize)
	r.Post("/admin/unseal", h.HandleUnseal)
	r.Post("/admin/seal", h.HandleSeal)
	r.Get("/admin/status", h.HandleStatus)
}

// HandleInitialize generates the master key, splits it, and returns the
// share tokens. This succeeds exactly once per vault lifetime.
//
// Endpoint: POST /admin/initialize
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	shares, err := h.svc.Initialize(req.TotalShares, req.Threshold)
	if err != nil {
		switch {
		case errors.Is(err, seal.ErrAlreadyInitialized):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, shamir.ErrTooManyShares), errors.Is(err, shamir.ErrInvalidThreshold):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("Initialization failed", "err", err)
			h.writeError(w, http.StatusInternalServerError, "initialization failed")
		}
		return
	}

	tokens := make([]string, len(shares))
	for i, s := range shares {
		token, err := shamir.EncodeShare(s)
		if err != nil {
			h.log.Error("Failed to encode share", "err", err)
			h.writeError(w, http.StatusInternalServerError, "initialization failed")
			return
		}
		tokens[i] = token
	}

	h.persistTopology(r.Context(), req.TotalShares, req.Threshold)

	h.log.Info("Vault initialized via admin API",
		slog.Int("threshold", req.Threshold),
		slog.Int("totalShares", req.TotalShares))

	h.writeJSON(w, http.StatusOK, InitializeResponse{
		Shares:      tokens,
		Threshold:   req.Threshold,
		TotalShares: req.TotalShares,
	})
}

// HandleUnseal submits one share token toward unsealing the vault and
// returns the resulting seal status.
//
// Endpoint: POST /admin/unseal
func (h *Handler) HandleUnseal(w http.ResponseWriter, r *http.Request) {
	var req UnsealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	share, err := shamir.DecodeShare(req.Share)
	if err != nil {
		h.countUnseal("rejected")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.svc.Unseal(share)
	if err != nil {
		h.countUnseal("rejected")
		switch {
		case errors.Is(err, seal.ErrNotInitialized):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, seal.ErrInvalidShare):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("Unseal failed", "err", err)
			h.writeError(w, http.StatusInternalServerError, "unseal failed")
		}
		return
	}

	h.countUnseal("accepted")
	if h.metrics != nil && !status.Sealed {
		h.metrics.VaultSealed.Set(0)
	}

	h.writeJSON(w, http.StatusOK, status)
}

// HandleSeal seals the vault, dropping the master key from memory.
// Sealing a sealed vault succeeds as a no-op.
//
// Endpoint: POST /admin/seal
func (h *Handler) HandleSeal(w http.ResponseWriter, r *http.Request) {
	h.svc.Seal()
	if h.metrics != nil {
		h.metrics.VaultSealed.Set(1)
		h.metrics.SealTransitions.WithLabelValues("manual").Inc()
	}
	h.writeJSON(w, http.StatusOK, h.svc.Status())
}

// HandleStatus returns a snapshot of the seal state. It never reveals
// key or share material.
//
// Endpoint: GET /admin/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Status()
	if h.metrics != nil {
		if status.Sealed {
			h.metrics.VaultSealed.Set(1)
		} else {
			h.metrics.VaultSealed.Set(0)
		}
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) persistTopology(ctx context.Context, totalShares, threshold int) {
	if h.backend == nil {
		return
	}
	err := secrets.SaveTopology(ctx, h.backend, secrets.Topology{
		Initialized: true,
		Threshold:   threshold,
		TotalShares: totalShares,
	})
	if err != nil {
		// Topology metadata is a restart convenience, not a
		// correctness requirement.
		h.log.Warn("Failed to persist vault topology", "err", err)
	}
}

func (h *Handler) countUnseal(result string) {
	if h.metrics != nil {
		h.metrics.UnsealAttempts.WithLabelValues(result).Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, ErrorResponse{Error: msg})
}
