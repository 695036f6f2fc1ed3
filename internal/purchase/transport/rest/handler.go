// Package rest provides HTTP handlers for purchase-related operations.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	producterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/errors"
	purchaseerrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/purchase/errors"
	"github.com/SauloAssisEngMec/API-shopping-cart/internal/purchase/service"
	"github.com/SauloAssisEngMec/API-shopping-cart/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	service service.PurchaseService
	logger  *slog.Logger
}

// NewHandler creates a new instance of PurchaseAPI with the provided service.
func NewHandler(service service.PurchaseService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for purchases.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/purchase/{userId}", func(r chi.Router) {
		r.Post("/checkout", h.Checkout)
		r.Get("/", h.ListPurchases)
		r.Get("/statistics", h.Statistics)
	})
}

// Checkout converts the user's cart into a purchase.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.ParseUUIDParam(w, r, mLogger, "userId")
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received checkout request", "UserID", userID)
	purchase, err := h.service.Checkout(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, purchaseerrors.ErrEmptyCart):
			mLogger.WarnContext(r.Context(), "Checkout rejected for empty cart", "UserID", userID)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		case errors.Is(err, purchaseerrors.ErrInsufficientStock):
			mLogger.WarnContext(r.Context(), "Checkout rejected for insufficient stock", "UserID", userID, "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		case errors.Is(err, producterrors.ErrProductNotFound):
			mLogger.WarnContext(r.Context(), "Checkout rejected, product no longer exists", "UserID", userID, "error", err)
			web.RespondError(w, mLogger, http.StatusNotFound, err.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Error processing checkout", "UserID", userID, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to process checkout")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Checkout completed", "UserID", userID, "PurchaseID", purchase.ID, "total", purchase.Total)
	web.RespondJSON(w, mLogger, http.StatusCreated, purchase)
}

// ListPurchases returns the user's purchase history, newest first.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.ParseUUIDParam(w, r, mLogger, "userId")
	if !ok {
		return
	}
	limit, ok := web.ParseValidateGt(r, w, mLogger, "limit", 0)
	if !ok {
		return
	}
	offset, ok := web.ParseValidateGte(r, w, mLogger, "offset", 0)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to list purchases", "UserID", userID, "limit", limit, "offset", offset)
	purchases, err := h.service.FindByUserID(r.Context(), userID, offset, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving purchases", "UserID", userID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to retrieve purchases")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved purchases", "UserID", userID, "count", len(purchases))
	web.RespondJSON(w, mLogger, http.StatusOK, purchases)
}

// Statistics aggregates the user's purchase history.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.ParseUUIDParam(w, r, mLogger, "userId")
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request for purchase statistics", "UserID", userID)
	stats, err := h.service.Statistics(r.Context(), userID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error aggregating purchase statistics", "UserID", userID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to aggregate statistics")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully aggregated purchase statistics", "UserID", userID, "totalSales", stats.TotalSales)
	web.RespondJSON(w, mLogger, http.StatusOK, stats)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
