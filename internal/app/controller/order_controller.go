package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/pasteldream/pastel-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type OrderItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest places an order for explicit lines. TotalAmount must
// match the current prices.
type CreateOrderRequest struct {
	Items       []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// GetOrders returns the caller's orders, newest first
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orders, err := ctrl.orderService.GetUserOrders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "List orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder returns one of the caller's orders with items and products
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	order, err := ctrl.orderService.GetOrderByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Get order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CreateOrder
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	lines := make([]service.OrderLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = service.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	order, err := ctrl.orderService.PlaceOrder(c.Request.Context(), userID, lines, req.TotalAmount)
	if err != nil {
		respondError(c, err, "Create order")
		return
	}
	ctrl.logPlaced(c, order)
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// Checkout places an order for the whole cart
// POST /api/v1/orders/checkout
func (ctrl *OrderController) Checkout(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	order, err := ctrl.orderService.CheckoutFromCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Checkout")
		return
	}
	ctrl.logPlaced(c, order)
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// UpdateOrderStatus notifies the order owner
// PATCH /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := ctrl.orderService.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "Update order status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (ctrl *OrderController) logPlaced(c *gin.Context, order *model.Order) {
	middleware.GetLoggerFromContext(c).Info("Order placed", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalAmount.StringFixed(2),
	})
}
