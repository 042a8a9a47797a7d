package controller

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/pasteldream/pastel-backend/internal/errors"
	"github.com/pasteldream/pastel-backend/internal/storage"
	"github.com/pasteldream/pastel-backend/pkg/logger"
)

// ImageStore is satisfied by *storage.Bucket.
type ImageStore interface {
	UploadProductImage(ctx context.Context, fileName, contentType string, body io.Reader) (*storage.Object, error)
	PresignProductImage(ctx context.Context, fileName, contentType string) (*storage.PresignedUpload, error)
}

type UploadController struct {
	storage ImageStore
}

func NewUploadController(storage ImageStore) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// UploadProductImage stores a multipart "file" and returns its public URL
// POST /api/v1/admin/uploads/product-image
func (ctrl *UploadController) UploadProductImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "file is required")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if err := storage.ValidateContentType(contentType, storage.ImageContentTypes); err != nil {
		logger.Warn("Invalid content type", map[string]interface{}{
			"content_type": contentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)")
		return
	}
	if err := storage.ValidateFileSize(header.Size, storage.MaxImageSize); err != nil {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, err.Error())
		return
	}

	file, err := header.Open()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	defer file.Close()

	object, err := ctrl.storage.UploadProductImage(c.Request.Context(), header.Filename, contentType, file)
	if err != nil {
		logger.Error("Failed to upload product image", err, map[string]interface{}{
			"filename": header.Filename,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.UploadFailed, "Failed to upload image")
		return
	}

	logger.Info("Product image uploaded", map[string]interface{}{
		"key":  object.Key,
		"size": header.Size,
	})
	c.JSON(http.StatusOK, gin.H{
		"key": object.Key,
		"url": object.URL,
	})
}

// GeneratePresignedURL lets the browser upload straight to the bucket
// POST /api/v1/admin/uploads/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	var req GeneratePresignedURLRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := storage.ValidateContentType(req.ContentType, storage.ImageContentTypes); err != nil {
		logger.Warn("Invalid content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)")
		return
	}

	response, err := ctrl.storage.PresignProductImage(c.Request.Context(), req.Filename, req.ContentType)
	if err != nil {
		logger.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.UploadFailed, "Failed to generate presigned URL")
		return
	}

	logger.Info("Presigned URL generated successfully", map[string]interface{}{
		"filename": req.Filename,
		"key":      response.Key,
	})
	c.JSON(http.StatusOK, response)
}
