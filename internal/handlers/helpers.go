package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pexl-backend/internal/middleware"
	"pexl-backend/internal/models"
)

// currentUserID pulls the authenticated user's id out of the context. It
// writes the error response itself so handlers can just return on !ok.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	idStr, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}
	return userID, true
}

func currentUserEmail(c *gin.Context) (string, bool) {
	email, ok := middleware.UserEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "email not found in token"})
		return "", false
	}
	return email, true
}
