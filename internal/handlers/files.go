package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pexl-backend/internal/draft"
	"pexl-backend/internal/models"
	"pexl-backend/internal/supabase"
)

type FilesHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
	logger        *logrus.Logger
}

func NewFilesHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient, logger *logrus.Logger) *FilesHandler {
	return &FilesHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
		logger:        logger,
	}
}

// Download streams a stored document back as an attachment. Shop owners use
// this to pull the documents of an order for printing.
func (h *FilesHandler) Download(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("file_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid file id"})
		return
	}

	record, err := h.dbClient.GetFileRecord(fileID)
	if errors.Is(err, supabase.ErrFileNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "file not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load file record",
			Message: err.Error(),
		})
		return
	}

	data, err := h.storageClient.DownloadFile(record.StoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to download file",
			Message: err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Filename))
	c.Data(http.StatusOK, record.ContentType, data)
}

// Delete removes a stored document. Only the uploading user may delete it;
// the draft descriptor, the database record and the blob all go.
func (h *FilesHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileID, err := uuid.Parse(c.Param("file_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid file id"})
		return
	}

	record, err := h.dbClient.GetFileRecord(fileID)
	if errors.Is(err, supabase.ErrFileNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "file not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load file record",
			Message: err.Error(),
		})
		return
	}
	if record.UserID != userID {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "file not found"})
		return
	}

	if err := h.dbClient.DeleteFileRecord(fileID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete file record",
			Message: err.Error(),
		})
		return
	}

	if err := h.storageClient.DeleteFile(record.StoragePath); err != nil {
		// The record is gone; an orphaned blob is recoverable by a sweep.
		h.logger.WithError(err).WithField("path", record.StoragePath).
			Warn("Failed to delete file blob")
	}

	err = h.dbClient.MutateDraft(userID, func(d *draft.Draft) error {
		d.RemoveFile(fileID.String())
		return nil
	})
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).
			Warn("Failed to remove deleted file from draft")
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PurgeAll removes every document the user has stored, their records and the
// draft referencing them. Account cleanup for "start over" and data removal
// requests.
func (h *FilesHandler) PurgeAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.storageClient.DeleteUserFiles(userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete stored files",
			Message: err.Error(),
		})
		return
	}

	if err := h.dbClient.DeleteFileRecordsForUser(userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete file records",
			Message: err.Error(),
		})
		return
	}

	if err := h.dbClient.ClearDraft(userID); err != nil {
		h.logger.WithError(err).WithField("user_id", userID).
			Warn("Failed to clear draft during purge")
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
