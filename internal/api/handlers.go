/**
 * @description
 * HTTP handlers for the dunning service's internal operational endpoints:
 * manual tick trigger, reminder log inspection, and pause control.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/duespark/dunning-service/internal/app"
	"github.com/duespark/dunning-service/internal/domain"
)

// TickRunner triggers one reminder tick.
type TickRunner interface {
	RunTick(ctx context.Context) (*app.TickResult, error)
}

// LogReader reads reminder history for an invoice.
type LogReader interface {
	FindLogsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.ReminderLog, error)
}

// Handler holds the dependencies the internal endpoints operate on.
type Handler struct {
	runner TickRunner
	logs   LogReader
	paused *app.PauseList
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(runner TickRunner, logs LogReader, paused *app.PauseList, logger *slog.Logger) *Handler {
	return &Handler{runner: runner, logs: logs, paused: paused, logger: logger}
}

func (h *Handler) handleRunTick(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.RunTick(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrTickInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("manual reminder tick failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListReminders(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")
	if invoiceID == "" {
		http.Error(w, "Invoice ID is required", http.StatusBadRequest)
		return
	}

	logs, err := h.logs.FindLogsByInvoiceID(r.Context(), invoiceID)
	if err != nil {
		h.logger.Error("failed to list reminders", "invoice_id", invoiceID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []domain.ReminderLog{}
	}

	respondWithJSON(w, http.StatusOK, logs)
}

func (h *Handler) handlePauseInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")
	if invoiceID == "" {
		http.Error(w, "Invoice ID is required", http.StatusBadRequest)
		return
	}

	h.paused.Pause(invoiceID)
	respondWithJSON(w, http.StatusOK, map[string]string{"invoice_id": invoiceID, "status": "paused"})
}

func (h *Handler) handleResumeInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")
	if invoiceID == "" {
		http.Error(w, "Invoice ID is required", http.StatusBadRequest)
		return
	}

	h.paused.Resume(invoiceID)
	respondWithJSON(w, http.StatusOK, map[string]string{"invoice_id": invoiceID, "status": "active"})
}

func (h *Handler) handleListPaused(w http.ResponseWriter, r *http.Request) {
	ids := h.paused.List()
	if ids == nil {
		ids = []string{}
	}
	respondWithJSON(w, http.StatusOK, map[string][]string{"paused": ids})
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
