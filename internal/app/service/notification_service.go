package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
)

// FanOutBatchSize is the number of notifications inserted per statement.
const FanOutBatchSize = 50

const (
	TitleOrderPlaced  = "Order Placed Successfully!"
	TitleOrderStatus  = "Order Status Updated"
	TitleNewProduct   = " New Product Alert!"
	previewRuneLength = 100
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationService interface {
	List(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	HasUnread(ctx context.Context, userID string) (bool, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, userID, id string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	FanOutProduct(ctx context.Context, product *model.Product) (int, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	profileRepo      repository.ProfileRepository
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	profileRepo repository.ProfileRepository,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		profileRepo:      profileRepo,
	}
}

func (s *notificationService) List(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	notifications, err := s.notificationRepo.FindByUserID(ctx, userID, limit)
	if err != nil {
		logger.Error("Failed to list notifications", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return notifications, nil
}

func (s *notificationService) HasUnread(ctx context.Context, userID string) (bool, error) {
	return s.notificationRepo.HasUnread(ctx, userID)
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id string) error {
	if err := s.notificationRepo.MarkAsRead(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	count, err := s.notificationRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	logger.Info("Notifications marked as read", map[string]interface{}{
		"user_id": userID,
		"count":   count,
	})
	return count, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, id string) error {
	if err := s.notificationRepo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// FanOutProduct tells every profile about product. Batches that fail are
// logged and skipped, so the returned count can be lower than the number of
// profiles. Only a failure to read the recipients is returned as an error.
func (s *notificationService) FanOutProduct(ctx context.Context, product *model.Product) (int, error) {
	ids, err := s.profileRepo.ListIDs(ctx)
	if err != nil {
		logger.Error("Failed to load fan-out recipients", err, map[string]interface{}{
			"product_id": product.ProductID,
		})
		return 0, err
	}

	message := NewProductMessage(product)
	sent := 0
	for start := 0; start < len(ids); start += FanOutBatchSize {
		end := start + FanOutBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		batch := make([]model.Notification, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, model.Notification{
				UserID:  id,
				Kind:    model.NotificationNewProduct,
				Title:   TitleNewProduct,
				Message: message,
			})
		}

		if err := s.notificationRepo.CreateBatch(ctx, batch); err != nil {
			logger.Error("Failed to insert notification batch", err, map[string]interface{}{
				"product_id":  product.ProductID,
				"batch_start": start,
				"batch_size":  len(batch),
			})
			continue
		}
		sent += len(batch)
	}

	logger.Info("Product notifications fanned out", map[string]interface{}{
		"product_id": product.ProductID,
		"recipients": len(ids),
		"sent":       sent,
	})
	return sent, nil
}

func OrderPlacedMessage(order *model.Order) string {
	return fmt.Sprintf("Your order of Rs. %s has been placed successfully.", order.TotalAmount.StringFixed(2))
}

func OrderStatusMessage(order *model.Order) string {
	return fmt.Sprintf("Your order #%s status has been updated to \"%s\".", order.ShortID(), order.Status)
}

func NewProductMessage(product *model.Product) string {
	return fmt.Sprintf("Check out our new product: \"%s\" - %s...", product.Name, truncateRunes(product.Description, previewRuneLength))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
