package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pexl-backend/internal/draft"
	"pexl-backend/internal/models"
	"pexl-backend/internal/services"
	"pexl-backend/internal/supabase"
)

type OrdersHandler struct {
	dbClient       *supabase.DatabaseClient
	realtimeClient *supabase.RealtimeClient
	checkout       *services.CheckoutService
	logger         *logrus.Logger
}

func NewOrdersHandler(dbClient *supabase.DatabaseClient, realtimeClient *supabase.RealtimeClient, checkout *services.CheckoutService, logger *logrus.Logger) *OrdersHandler {
	return &OrdersHandler{
		dbClient:       dbClient,
		realtimeClient: realtimeClient,
		checkout:       checkout,
		logger:         logger,
	}
}

// Create submits the user's draft as an order directly, without a payment
// intent. Card checkout goes through /checkout/intent instead; this path
// serves pay-at-shop orders.
func (h *OrdersHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, _, err := h.checkout.CreateOrderFromDraft(userID)
	if errors.Is(err, services.ErrNoShopSelected) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no shop selected"})
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
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create order",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.OrderCreatedResponse{
		Success: true,
		OrderID: orderID.String(),
	})
}

// List returns the owner's active and completed orders, newest first.
func (h *OrdersHandler) List(c *gin.Context) {
	email, ok := currentUserEmail(c)
	if !ok {
		return
	}

	active, err := h.dbClient.ListActiveOrders(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list active orders",
			Message: err.Error(),
		})
		return
	}
	completed, err := h.dbClient.ListCompletedOrders(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list completed orders",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.OrdersResponse{
		ActiveOrders:    h.toViews(active),
		CompletedOrders: h.toViews(completed),
	})
}

// Complete moves an active order into the completed list. Completing an
// order that is already completed, or never existed, returns 404.
func (h *OrdersHandler) Complete(c *gin.Context) {
	email, ok := currentUserEmail(c)
	if !ok {
		return
	}

	var req models.CompleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	completedID, err := h.dbClient.CompleteOrder(orderID)
	if errors.Is(err, supabase.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to complete order",
			Message: err.Error(),
		})
		return
	}

	if err := h.realtimeClient.PublishShopEvent(email, "order_completed",
		supabase.OrderCompletedPayload(completedID)); err != nil {
		h.logger.WithError(err).Warn("Failed to publish order_completed event")
	}

	c.JSON(http.StatusOK, models.CompleteOrderResponse{
		Success:          true,
		CompletedOrderID: completedID.String(),
	})
}

// Check reports whether an active order exists for a reference. The payment
// confirmation page polls this while the success webhook is in flight.
func (h *OrdersHandler) Check(c *gin.Context) {
	orderRef := c.Param("order_ref")
	if orderRef == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing order reference"})
		return
	}

	exists, err := h.dbClient.OrderExists(orderRef)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to check order",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.OrderExistsResponse{Exists: exists})
}

func (h *OrdersHandler) toViews(orders []models.Order) []models.OrderView {
	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		view := models.OrderView{
			ID:           o.ID.String(),
			OrderRef:     o.OrderRef,
			OwnerMail:    o.OwnerMail,
			Instructions: o.Instructions,
			Subtotal:     o.Subtotal,
			PlatformFee:  o.PlatformFee,
			TotalPrice:   o.TotalPrice,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt,
		}
		if o.CompletedAt.Valid {
			t := o.CompletedAt.Time
			view.CompletedAt = &t
		}
		if err := json.Unmarshal(o.Shop, &view.Shop); err != nil {
			h.logger.WithError(err).WithField("order_id", o.ID).Warn("Failed to decode shop snapshot")
		}
		if err := json.Unmarshal(o.Files, &view.Files); err != nil {
			h.logger.WithError(err).WithField("order_id", o.ID).Warn("Failed to decode order files")
		}
		views = append(views, view)
	}
	return views
}
