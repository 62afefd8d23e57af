package handlers

import (
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

type DraftsHandler struct {
	dbClient *supabase.DatabaseClient
	checkout *services.CheckoutService
	logger   *logrus.Logger
}

func NewDraftsHandler(dbClient *supabase.DatabaseClient, checkout *services.CheckoutService, logger *logrus.Logger) *DraftsHandler {
	return &DraftsHandler{
		dbClient: dbClient,
		checkout: checkout,
		logger:   logger,
	}
}

// Get returns the user's draft together with a live quote when a shop has
// been selected. Every page of the checkout flow reads this one endpoint.
func (h *DraftsHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	dr, err := h.dbClient.GetDraft(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load draft",
			Message: err.Error(),
		})
		return
	}

	resp := gin.H{"draft": dr}
	if dr.ShopID != "" {
		if shopID, err := uuid.Parse(dr.ShopID); err == nil {
			if shop, err := h.dbClient.GetShop(shopID); err == nil {
				if quote, err := h.checkout.QuoteDraft(dr, shop); err == nil {
					resp["quote"] = quote
				}
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterFile records an upload the client is about to start. The settings
// entry is created here, before any bytes move, so the settings page works
// while uploads are still in flight.
func (h *DraftsHandler) RegisterFile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.RegisterDraftFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	err := h.dbClient.MutateDraft(userID, func(d *draft.Draft) error {
		d.RegisterFile(req.TempID, req.Name, req.Size, req.ContentType)
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update draft",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateSetting flips one print option on a file's settings entry. The file
// id in the path may be the temporary or the persisted identifier.
func (h *DraftsHandler) UpdateSetting(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileID := c.Param("file_id")

	var req models.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	err := h.dbClient.MutateDraft(userID, func(d *draft.Draft) error {
		return d.Settings.UpdateToggle(fileID, req.Field, *req.Value)
	})
	if errors.Is(err, draft.ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "settings entry not found"})
		return
	}
	if errors.Is(err, draft.ErrUnknownField) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unknown settings field"})
		return
	}
	if errors.Is(err, draft.ErrAmbiguousEntry) {
		// More than one entry matched; the store is corrupted.
		h.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"file_id": fileID,
		}).Error("Settings store matched multiple entries for one file")
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "settings store is inconsistent"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update settings",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SelectShop stores the chosen print shop on the draft.
func (h *DraftsHandler) SelectShop(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SelectShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid shop id"})
		return
	}
	if _, err := h.dbClient.GetShop(shopID); err != nil {
		if errors.Is(err, supabase.ErrShopNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to verify shop",
			Message: err.Error(),
		})
		return
	}

	err = h.dbClient.MutateDraft(userID, func(d *draft.Draft) error {
		d.ShopID = shopID.String()
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update draft",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetInstructions stores free-form printing instructions on the draft.
func (h *DraftsHandler) SetInstructions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.InstructionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	err := h.dbClient.MutateDraft(userID, func(d *draft.Draft) error {
		d.Instructions = req.Instructions
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update draft",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Clear abandons the draft without touching the stored files.
func (h *DraftsHandler) Clear(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.dbClient.ClearDraft(userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to clear draft",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
