package service

import (
	"context"
	"strings"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// DashboardStats are computed in memory from full table reads.
type DashboardStats struct {
	TotalProducts     int             `json:"total_products"`
	ActiveProducts    int             `json:"active_products"`
	InactiveProducts  int             `json:"inactive_products"`
	TotalOrders       int             `json:"total_orders"`
	PendingOrders     int             `json:"pending_orders"`
	CompletedOrders   int             `json:"completed_orders"`
	CancelledOrders   int             `json:"cancelled_orders"`
	TotalUsers        int64           `json:"total_users"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// AdminOrder is an order with the customer's profile attached.
type AdminOrder struct {
	model.Order
	Customer *model.Profile `json:"customer,omitempty"`
}

type OrderQuery struct {
	Status model.OrderStatus
	Search string
}

type AdminService interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
	ListOrders(ctx context.Context, q OrderQuery) ([]AdminOrder, error)
	GetOrder(ctx context.Context, orderID string) (*AdminOrder, error)
	ListUsers(ctx context.Context) ([]model.Profile, error)
}

type adminService struct {
	adminRepo   repository.AdminRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	profileRepo repository.ProfileRepository
}

func NewAdminService(
	adminRepo repository.AdminRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	profileRepo repository.ProfileRepository,
) AdminService {
	return &adminService{
		adminRepo:   adminRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		profileRepo: profileRepo,
	}
}

func (s *adminService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.adminRepo.IsAdmin(ctx, userID)
}

func (s *adminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	products, err := s.productRepo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.List(ctx, "")
	if err != nil {
		return nil, err
	}
	users, err := s.profileRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalProducts:     len(products),
		TotalOrders:       len(orders),
		TotalUsers:        users,
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	for i := range products {
		if products[i].IsActive {
			stats.ActiveProducts++
		} else {
			stats.InactiveProducts++
		}
	}
	for i := range orders {
		switch orders[i].Status {
		case model.OrderStatusPending:
			stats.PendingOrders++
		case model.OrderStatusCompleted:
			stats.CompletedOrders++
			stats.TotalRevenue = stats.TotalRevenue.Add(orders[i].TotalAmount)
		case model.OrderStatusCancelled:
			stats.CancelledOrders++
		}
	}
	if stats.CompletedOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.
			Div(decimal.NewFromInt(int64(stats.CompletedOrders))).
			Round(2)
	}

	logger.Debug("Dashboard stats computed", map[string]interface{}{
		"products": stats.TotalProducts,
		"orders":   stats.TotalOrders,
		"users":    stats.TotalUsers,
	})
	return stats, nil
}

// ListOrders filters by status and then by search, which matches an order
// id prefix, a customer name fragment or the digits of the amount.
func (s *adminService) ListOrders(ctx context.Context, q OrderQuery) ([]AdminOrder, error) {
	orders, err := s.orderRepo.List(ctx, q.Status)
	if err != nil {
		return nil, err
	}
	result, err := s.attachCustomers(ctx, orders)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return result, nil
	}
	filtered := make([]AdminOrder, 0, len(result))
	for _, o := range result {
		if matchesOrderSearch(o, term) {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

func matchesOrderSearch(o AdminOrder, term string) bool {
	if strings.HasPrefix(strings.ToLower(o.ID), term) {
		return true
	}
	if o.Customer != nil && strings.Contains(strings.ToLower(o.Customer.Name), term) {
		return true
	}
	return strings.Contains(o.TotalAmount.String(), term) ||
		strings.Contains(o.TotalAmount.StringFixed(2), term)
}

func (s *adminService) GetOrder(ctx context.Context, orderID string) (*AdminOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err, ErrOrderNotFound)
	}
	withCustomer, err := s.attachCustomers(ctx, []model.Order{*order})
	if err != nil {
		return nil, err
	}
	return &withCustomer[0], nil
}

func (s *adminService) ListUsers(ctx context.Context) ([]model.Profile, error) {
	return s.profileRepo.List(ctx)
}

func (s *adminService) attachCustomers(ctx context.Context, orders []model.Order) ([]AdminOrder, error) {
	seen := map[string]bool{}
	ids := make([]string, 0, len(orders))
	for i := range orders {
		if !seen[orders[i].UserID] {
			seen[orders[i].UserID] = true
			ids = append(ids, orders[i].UserID)
		}
	}

	profiles, err := s.profileRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Profile, len(profiles))
	for i := range profiles {
		byID[profiles[i].ID] = &profiles[i]
	}

	result := make([]AdminOrder, 0, len(orders))
	for i := range orders {
		result = append(result, AdminOrder{Order: orders[i], Customer: byID[orders[i].UserID]})
	}
	return result, nil
}
