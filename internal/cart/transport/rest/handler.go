// Package rest provides HTTP handlers for cart-related operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	carterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/errors"
	"github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/service"
	producterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/errors"
	"github.com/SauloAssisEngMec/API-shopping-cart/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.CartService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of CartAPI with the provided service.
func NewHandler(service service.CartService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// addToCartRequest is the request body for adding items to a cart.
type addToCartRequest struct {
	Items []service.CartItemDto `json:"items" validate:"required,gt=0,dive"`
}

// RegisterRoutes registers the HTTP routes for the cart.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/cart/{userId}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/add", h.AddToCart)
		r.Delete("/remove/{productId}", h.RemoveFromCart)
		r.Patch("/decrease/{productId}", h.DecreaseQuantity)
	})
}

// GetCart returns the user's cart, an empty one if no cart exists yet.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.ParseUUIDParam(w, r, mLogger, "userId")
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to get cart", "UserID", userID)
	cart, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving cart", "UserID", userID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to retrieve cart")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved cart", "UserID", userID, "items", len(cart.Items))
	web.RespondJSON(w, mLogger, http.StatusOK, cart)
}

// AddToCart merges a batch of items into the user's cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.ParseUUIDParam(w, r, mLogger, "userId")
	if !ok {
		return
	}

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to add items to cart", "UserID", userID, "items", len(req.Items))
	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.service.AddToCart(r.Context(), userID, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, carterrors.ErrInvalidItem):
			mLogger.WarnContext(r.Context(), "Invalid cart item in batch", "UserID", userID, "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		case errors.Is(err, producterrors.ErrProductNotFound):
			mLogger.WarnContext(r.Context(), "Product not found for cart add", "UserID", userID, "error", err)
			web.RespondError(w, mLogger, http.StatusNotFound, err.Error())
		case errors.Is(err, carterrors.ErrInsufficientStock):
			mLogger.WarnContext(r.Context(), "Insufficient stock for cart add", "UserID", userID, "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Error adding items to cart", "UserID", userID, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to add items to cart")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Items added to cart", "UserID", userID, "items", len(cart.Items))
	web.RespondJSON(w, mLogger, http.StatusCreated, cart)
}

// RemoveFromCart deletes a whole line item from the user's cart.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.ParseUUIDParam(w, r, mLogger, "userId")
	if !ok {
		return
	}
	productID, ok := web.ParseUUIDParam(w, r, mLogger, "productId")
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to remove product from cart", "UserID", userID, "ProductID", productID)
	cart, err := h.service.RemoveFromCart(r.Context(), userID, productID)
	if err != nil {
		if errors.Is(err, carterrors.ErrCartNotFound) || errors.Is(err, carterrors.ErrCartItemNotFound) {
			mLogger.WarnContext(r.Context(), "Cart or item not found for removal", "UserID", userID, "ProductID", productID)
			web.RespondError(w, mLogger, http.StatusNotFound, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error removing product from cart", "UserID", userID, "ProductID", productID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to remove product %s from cart", productID))
		return
	}
	mLogger.InfoContext(r.Context(), "Product removed from cart", "UserID", userID, "ProductID", productID)
	web.RespondJSON(w, mLogger, http.StatusOK, cart)
}

// DecreaseQuantity decrements a line item's quantity.
func (h *Handler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.ParseUUIDParam(w, r, mLogger, "userId")
	if !ok {
		return
	}
	productID, ok := web.ParseUUIDParam(w, r, mLogger, "productId")
	if !ok {
		return
	}
	amount, ok := web.ParseValidateGt(r, w, mLogger, "quantity", 0)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to decrease product quantity", "UserID", userID, "ProductID", productID, "amount", amount)
	cart, err := h.service.DecreaseQuantity(r.Context(), userID, productID, amount)
	if err != nil {
		switch {
		case errors.Is(err, carterrors.ErrInvalidItem):
			mLogger.WarnContext(r.Context(), "Invalid decrease amount", "UserID", userID, "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		case errors.Is(err, carterrors.ErrCartNotFound), errors.Is(err, carterrors.ErrCartItemNotFound):
			mLogger.WarnContext(r.Context(), "Cart or item not found for decrease", "UserID", userID, "ProductID", productID)
			web.RespondError(w, mLogger, http.StatusNotFound, err.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Error decreasing product quantity", "UserID", userID, "ProductID", productID, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to decrease product %s quantity", productID))
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Product quantity decreased", "UserID", userID, "ProductID", productID)
	web.RespondJSON(w, mLogger, http.StatusOK, cart)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
