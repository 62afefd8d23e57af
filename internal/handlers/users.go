package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pexl-backend/internal/models"
	"pexl-backend/internal/supabase"
)

type UsersHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewUsersHandler(dbClient *supabase.DatabaseClient) *UsersHandler {
	return &UsersHandler{dbClient: dbClient}
}

// Role returns the role stored for an email address, defaulting to customer.
// A user may only query their own role.
func (h *UsersHandler) Role(c *gin.Context) {
	email, ok := currentUserEmail(c)
	if !ok {
		return
	}

	queried := c.Query("email")
	if queried == "" {
		queried = email
	}
	if queried != email {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "cannot query another user's role"})
		return
	}

	role, err := h.dbClient.GetRole(queried)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get role",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.RoleResponse{Role: role})
}
