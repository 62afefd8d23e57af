package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pexl-backend/internal/config"
	"pexl-backend/internal/models"
	"pexl-backend/internal/services"
)

type WebhookHandler struct {
	config   *config.Config
	checkout *services.CheckoutService
	logger   *logrus.Logger
}

func NewWebhookHandler(cfg *config.Config, checkout *services.CheckoutService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		config:   cfg,
		checkout: checkout,
		logger:   logger,
	}
}

// PaymentWebhookEvent is the processor's callback envelope. Only the event
// type and the intent's id and failure message are read.
type PaymentWebhookEvent struct {
	Type string `json:"type"` // "payment_intent.succeeded" or "payment_intent.payment_failed"
	Data struct {
		Object struct {
			ID               string `json:"id"`
			LastPaymentError struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
		} `json:"object"`
	} `json:"data"`
}

// HandlePayment receives payment processor callbacks. Authentication is a
// shared token configured on the processor's dashboard; the JWT middleware
// does not apply here.
func (h *WebhookHandler) HandlePayment(c *gin.Context) {
	if h.checkout == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "checkout service not available"})
		return
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing authorization token"})
		return
	}

	// Token may arrive as "Bearer <token>" or bare
	token := strings.TrimPrefix(authHeader, "Bearer ")
	token = strings.TrimSpace(token)

	if h.config.PaymentWebhookToken != "" && token != h.config.PaymentWebhookToken {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid authorization token"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Message: err.Error(),
		})
		return
	}

	var event PaymentWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse event",
			Message: err.Error(),
		})
		return
	}

	intentID := event.Data.Object.ID
	if intentID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "event has no payment intent id"})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		if err := h.checkout.HandlePaymentSucceeded(intentID); err != nil {
			// Non-2xx makes the processor redeliver; the one-shot guard and
			// the unique intent constraint make the retry safe.
			h.logger.WithError(err).WithField("payment_intent_id", intentID).
				Error("Failed to process payment success")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to process event",
				Message: err.Error(),
			})
			return
		}
	case "payment_intent.payment_failed":
		message := event.Data.Object.LastPaymentError.Message
		if message == "" {
			message = "payment failed"
		}
		h.checkout.HandlePaymentFailed(intentID, message)
	default:
		h.logger.WithField("type", event.Type).Debug("Ignoring unhandled webhook event")
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
