package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	apperrors "github.com/pasteldream/pastel-backend/internal/errors"
)

const defaultNotificationLimit = 50

type NotificationController struct {
	service service.NotificationService
}

func NewNotificationController(service service.NotificationService) *NotificationController {
	return &NotificationController{
		service: service,
	}
}

// GetNotifications lists the caller's notifications, newest first
// GET /api/v1/notifications?limit=
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	limit := defaultNotificationLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			apperrors.BadRequest(ctx, apperrors.ValidationInvalidRange, "limit must be a positive number")
			return
		}
		limit = n
	}

	notifications, err := c.service.List(ctx.Request.Context(), userID, limit)
	if err != nil {
		respondError(ctx, err, "List notifications")
		return
	}
	unread, err := c.service.CountUnread(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, "List notifications")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
		"unread_count":  unread,
	})
}

// GetUnread reports whether any unread notification exists
// GET /api/v1/notifications/unread
func (c *NotificationController) GetUnread(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	unread, err := c.service.HasUnread(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, "Check notifications")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"has_unread": unread})
}

// MarkAsRead
// PUT /api/v1/notifications/:id/read
func (c *NotificationController) MarkAsRead(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	if err := c.service.MarkAsRead(ctx.Request.Context(), userID, ctx.Param("id")); err != nil {
		respondError(ctx, err, "Update notification")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllAsRead
// PUT /api/v1/notifications/read-all
func (c *NotificationController) MarkAllAsRead(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	updated, err := c.service.MarkAllAsRead(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, "Update notifications")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"updated": updated})
}

// DeleteNotification
// DELETE /api/v1/notifications/:id
func (c *NotificationController) DeleteNotification(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	if err := c.service.Delete(ctx.Request.Context(), userID, ctx.Param("id")); err != nil {
		respondError(ctx, err, "Delete notification")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
