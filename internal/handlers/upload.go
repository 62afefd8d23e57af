package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pexl-backend/internal/draft"
	"pexl-backend/internal/models"
	"pexl-backend/internal/pagecount"
	"pexl-backend/internal/supabase"
)

type UploadHandler struct {
	dbClient       *supabase.DatabaseClient
	storageClient  *supabase.StorageClient
	realtimeClient *supabase.RealtimeClient
	logger         *logrus.Logger
}

func NewUploadHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient, realtimeClient *supabase.RealtimeClient, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{
		dbClient:       dbClient,
		storageClient:  storageClient,
		realtimeClient: realtimeClient,
		logger:         logger,
	}
}

// Upload receives one document, stores the blob, counts its pages when it is
// a PDF and completes the matching draft descriptor. The optional temp_id
// form field ties the upload back to the entry the client registered before
// starting the transfer.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.dbClient == nil || h.storageClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "storage not available"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	form := c.Request.MultipartForm
	if form == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: "multipart form is nil",
		})
		return
	}

	// Try multiple common field names
	var fileHeader *multipart.FileHeader
	fieldNames := []string{"file", "files", "document", "upload"}
	for _, fieldName := range fieldNames {
		if f := form.File[fieldName]; len(f) > 0 {
			fileHeader = f[0]
			break
		}
	}
	if fileHeader == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no file uploaded",
			Message: fmt.Sprintf("please provide a file with one of these field names: %v", fieldNames),
		})
		return
	}

	tempID := c.PostForm("temp_id")

	src, err := fileHeader.Open()
	if err != nil {
		h.markError(userID, tempID)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to open file",
			Message: err.Error(),
		})
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		h.markError(userID, tempID)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read file data",
			Message: err.Error(),
		})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Page count is best effort. A document we cannot parse still uploads;
	// pricing falls back to one page until the settings entry says otherwise.
	var pages int
	if pagecount.Supported(contentType) {
		pages, err = pagecount.FromPDF(data)
		if err != nil {
			h.logger.WithError(err).WithField("filename", fileHeader.Filename).
				Warn("Failed to count PDF pages, defaulting to 1")
			pages = 0
		}
	}

	fileID := uuid.New()
	storagePath, storageURL, err := h.storageClient.UploadFile(userID, fileID, fileHeader.Filename, data, contentType)
	if err != nil {
		h.markError(userID, tempID)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to store file",
			Message: err.Error(),
		})
		return
	}

	record := &models.FileRecord{
		ID:          fileID,
		UserID:      userID,
		TempID:      tempID,
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		StoragePath: storagePath,
		StorageURL:  storageURL,
		Status:      "completed",
	}
	if pages > 0 {
		record.PageCount.Int64 = int64(pages)
		record.PageCount.Valid = true
	}
	if err := h.dbClient.CreateFileRecord(record); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save file record",
			Message: err.Error(),
		})
		return
	}

	// Attach the persisted id to the draft. A missing settings entry is a
	// data integrity problem worth a warning, not a failed upload.
	if tempID != "" {
		err = h.dbClient.MutateDraft(userID, func(d *draft.Draft) error {
			if err := d.CompleteUpload(tempID, fileID.String(), pages); err != nil {
				h.logger.WithFields(logrus.Fields{
					"temp_id": tempID,
					"file_id": fileID,
				}).Warn("No settings entry found for uploaded file")
			}
			return nil
		})
		if err != nil {
			h.logger.WithError(err).WithField("user_id", userID).
				Error("Failed to update draft after upload")
		}
	}

	if err := h.realtimeClient.PublishUserEvent(userID, "upload_completed",
		supabase.UploadCompletedPayload(fileID, fileHeader.Filename)); err != nil {
		h.logger.WithError(err).Warn("Failed to publish upload_completed event")
	}

	resp := models.UploadResponse{
		Success: true,
		FileID:  fileID.String(),
		File: models.UploadedFileInfo{
			Filename:    fileHeader.Filename,
			ContentType: contentType,
			Size:        int64(len(data)),
		},
	}
	if pages > 0 {
		resp.File.PageCount = &pages
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UploadHandler) markError(userID uuid.UUID, tempID string) {
	if tempID == "" {
		return
	}
	err := h.dbClient.MutateDraft(userID, func(d *draft.Draft) error {
		d.MarkError(tempID)
		return nil
	})
	if err != nil {
		h.logger.WithError(err).Warn("Failed to mark draft file as errored")
	}
}
