package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pexl-backend/internal/models"
	"pexl-backend/internal/supabase"
)

type ShopsHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewShopsHandler(dbClient *supabase.DatabaseClient) *ShopsHandler {
	return &ShopsHandler{dbClient: dbClient}
}

// List returns every registered print shop with its per-sheet rates.
func (h *ShopsHandler) List(c *gin.Context) {
	shops, err := h.dbClient.ListShops()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list shops",
			Message: err.Error(),
		})
		return
	}
	if shops == nil {
		shops = []models.Shop{}
	}
	c.JSON(http.StatusOK, models.ShopsResponse{Shops: shops})
}

func (h *ShopsHandler) Get(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("shop_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid shop id"})
		return
	}

	shop, err := h.dbClient.GetShop(shopID)
	if errors.Is(err, supabase.ErrShopNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "shop not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get shop",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ShopResponse{Shop: *shop})
}

// GetOwned returns the shop belonging to the authenticated owner.
func (h *ShopsHandler) GetOwned(c *gin.Context) {
	email, ok := currentUserEmail(c)
	if !ok {
		return
	}

	shop, err := h.dbClient.GetShopByOwner(email)
	if errors.Is(err, supabase.ErrShopNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no shop registered for this account"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get shop",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ShopResponse{Shop: *shop})
}

// UpdateOwned applies partial updates to the owner's shop. Zero values are
// left untouched so the client only sends the fields it changed.
func (h *ShopsHandler) UpdateOwned(c *gin.Context) {
	email, ok := currentUserEmail(c)
	if !ok {
		return
	}

	var req models.UpdateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	shop, err := h.dbClient.GetShopByOwner(email)
	if errors.Is(err, supabase.ErrShopNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no shop registered for this account"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get shop",
			Message: err.Error(),
		})
		return
	}

	if req.Name != "" {
		shop.Name = req.Name
	}
	if req.Location != "" {
		shop.Location = req.Location
	}
	if req.Contact != "" {
		shop.Contact = req.Contact
	}
	if req.Status != "" {
		shop.Status = req.Status
	}
	if req.PriceBW != nil {
		if *req.PriceBW < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "price_bw must not be negative"})
			return
		}
		shop.PriceBW = *req.PriceBW
	}
	if req.PriceColor != nil {
		if *req.PriceColor < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "price_color must not be negative"})
			return
		}
		shop.PriceColor = *req.PriceColor
	}

	if err := h.dbClient.SaveShop(shop); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save shop",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ShopResponse{Shop: *shop})
}
