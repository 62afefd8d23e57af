package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pexl-backend/internal/draft"
	"pexl-backend/internal/models"
	"pexl-backend/internal/payment"
	"pexl-backend/internal/pricing"
	"pexl-backend/internal/services"
	"pexl-backend/internal/supabase"
)

type CheckoutHandler struct {
	checkout *services.CheckoutService
}

func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// CreateIntent prices the user's draft and opens a payment intent for the
// total. The amount is always recomputed server-side from the draft and the
// selected shop's rates.
func (h *CheckoutHandler) CreateIntent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	intent, quote, err := h.checkout.CreateIntent(userID)
	if errors.Is(err, services.ErrNoShopSelected) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no shop selected"})
		return
	}
	if errors.Is(err, payment.ErrInvalidAmount) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "amount must be a positive number"})
		return
	}
	if errors.Is(err, supabase.ErrShopNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "shop not found"})
		return
	}
	var incomplete *draft.IncompleteError
	if errors.Is(err, draft.ErrEmptyDraft) || errors.As(err, &incomplete) {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "draft is not ready for checkout",
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		var intentErr *payment.IntentCreationError
		if errors.As(err, &intentErr) {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "payment processor rejected the request",
				Message: intentErr.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create payment intent",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret": intent.ClientSecret,
		"amount":        intent.Amount,
		"currency":      intent.Currency,
		"quote":         quote,
	})
}

type PaymentsHandler struct {
	coordinator *payment.Coordinator
	currency    string
}

func NewPaymentsHandler(coordinator *payment.Coordinator, currency string) *PaymentsHandler {
	return &PaymentsHandler{
		coordinator: coordinator,
		currency:    currency,
	}
}

// CreateIntent opens a payment intent for an explicit amount in major
// currency units. Non-positive amounts are rejected before the processor is
// contacted.
func (h *PaymentsHandler) CreateIntent(c *gin.Context) {
	var req models.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "amount must be a positive number"})
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = h.currency
	}

	intent, err := h.coordinator.Begin(pricing.MinorUnits(req.Amount), currency, req.Metadata)
	if err != nil {
		var intentErr *payment.IntentCreationError
		if errors.As(err, &intentErr) {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "payment processor rejected the request",
				Message: intentErr.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create payment intent",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.IntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	})
}
