package service

import (
	"context"
	"errors"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrTotalMismatch      = errors.New("order total does not match item prices")
	ErrProfileIncomplete  = errors.New("name, phone and address are required before checkout")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// OrderLine is one product and quantity in a new order.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, lines []OrderLine, total decimal.Decimal) (*model.Order, error)
	CheckoutFromCart(ctx context.Context, userID string) (*model.Order, error)
	GetUserOrders(ctx context.Context, userID string) ([]model.Order, error)
	GetOrderByID(ctx context.Context, userID, orderID string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	db               *gorm.DB
	orderRepo        repository.OrderRepository
	cartRepo         repository.CartRepository
	notificationRepo repository.NotificationRepository
	profileRepo      repository.ProfileRepository
	addressRepo      repository.AddressRepository
	feed             realtime.Feed
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	notificationRepo repository.NotificationRepository,
	profileRepo repository.ProfileRepository,
	addressRepo repository.AddressRepository,
	feed realtime.Feed,
) OrderService {
	return &orderService{
		db:               db,
		orderRepo:        orderRepo,
		cartRepo:         cartRepo,
		notificationRepo: notificationRepo,
		profileRepo:      profileRepo,
		addressRepo:      addressRepo,
		feed:             feed,
	}
}

// PlaceOrder writes the order, its items, the emptied cart and the
// confirmation notification in one transaction. Item prices come from the
// products as read inside the transaction, and total must equal their sum.
// Realtime events for the new rows go out only after commit.
func (s *orderService) PlaceOrder(ctx context.Context, userID string, lines []OrderLine, total decimal.Decimal) (*model.Order, error) {
	logger.Info("Placing order", map[string]interface{}{
		"user_id": userID,
		"lines":   len(lines),
		"total":   total.StringFixed(2),
	})

	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	ctx, outbox := realtime.WithOutbox(ctx)
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := make([]model.OrderItem, 0, len(lines))
		computed := decimal.Zero
		for _, line := range lines {
			if line.Quantity < 1 {
				return ErrInvalidQuantity
			}

			var product model.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("product_id = ?", line.ProductID).
				First(&product).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					logger.Warn("Product not found during order placement", map[string]interface{}{
						"user_id":    userID,
						"product_id": line.ProductID,
					})
					return ErrProductNotFound
				}
				return err
			}
			if !product.IsActive {
				return ErrProductUnavailable
			}

			computed = computed.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, model.OrderItem{
				ProductID: product.ProductID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			})
		}

		if !computed.Round(2).Equal(total.Round(2)) {
			logger.Warn("Order total mismatch", map[string]interface{}{
				"user_id":  userID,
				"given":    total.StringFixed(2),
				"computed": computed.StringFixed(2),
			})
			return ErrTotalMismatch
		}

		order = &model.Order{
			UserID:        userID,
			TotalAmount:   computed,
			Status:        model.OrderStatusCompleted,
			PaymentMethod: model.PaymentMethodRazorpay,
			PaymentStatus: model.PaymentStatusPaid,
			Items:         items,
		}
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if err := s.cartRepo.WithTx(tx).DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		return s.notificationRepo.WithTx(tx).Create(ctx, &model.Notification{
			UserID:  userID,
			Kind:    model.NotificationOrderPlaced,
			Title:   TitleOrderPlaced,
			Message: OrderPlacedMessage(order),
		})
	})
	if err != nil {
		outbox.Discard()
		if !isServiceError(err) {
			logger.Error("Failed to place order", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}
	s.flush(ctx, outbox)

	logger.Info("Order placed", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
		"total":    order.TotalAmount.StringFixed(2),
	})
	return order, nil
}

// CheckoutFromCart places an order for everything in the cart at the
// current product prices.
func (s *orderService) CheckoutFromCart(ctx context.Context, userID string) (*model.Order, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if profile == nil || !profile.ReadyForCheckout() {
		return nil, ErrProfileIncomplete
	}
	hasAddress, err := s.addressRepo.HasAny(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !hasAddress {
		return nil, ErrProfileIncomplete
	}

	items, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]OrderLine, 0, len(items))
	for i := range items {
		if items[i].Product == nil {
			return nil, ErrProductNotFound
		}
		lines = append(lines, OrderLine{ProductID: items[i].ProductID, Quantity: items[i].Quantity})
	}
	return s.PlaceOrder(ctx, userID, lines, newCart(items).Total)
}

func (s *orderService) GetUserOrders(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(ctx, userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		logger.Warn("Order belongs to another user", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus changes the status and notifies the owner in one
// transaction.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	logger.Info("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})

	ctx, outbox := realtime.WithOutbox(ctx)
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		found, err := orders.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := orders.UpdateStatus(ctx, orderID, status); err != nil {
			return err
		}
		found.Status = status
		order = found

		return s.notificationRepo.WithTx(tx).Create(ctx, &model.Notification{
			UserID:  found.UserID,
			Kind:    model.NotificationOrderStatus,
			Title:   TitleOrderStatus,
			Message: OrderStatusMessage(found),
		})
	})
	if err != nil {
		outbox.Discard()
		if !isServiceError(err) {
			logger.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": orderID,
			})
		}
		return nil, err
	}
	s.flush(ctx, outbox)

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return order, nil
}

func (s *orderService) flush(ctx context.Context, outbox *realtime.Outbox) {
	if s.feed == nil {
		outbox.Discard()
		return
	}
	outbox.Flush(ctx, s.feed)
}

// isServiceError reports whether err is one of this package's sentinels,
// which are expected outcomes rather than failures.
func isServiceError(err error) bool {
	for _, target := range []error{
		ErrEmptyCart, ErrTotalMismatch, ErrInvalidQuantity, ErrProductNotFound,
		ErrProductUnavailable, ErrOrderNotFound, ErrInvalidOrderStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
