package service

import (
	"context"
	"testing"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_PlaceOrder(t *testing.T) {
	env := setupServiceTest(t)
	orders := env.orderService()
	ctx := context.Background()
	tee := env.seedProduct(t, "Cloud Tee", "499.50")
	skirt := env.seedProduct(t, "Sky Skirt", "1000")

	_, err := env.carts.AddOne(ctx, "user-1", tee.ProductID)
	require.NoError(t, err)
	events := env.collect(t, realtime.Filter{Table: "notifications", Type: realtime.Insert, UserID: "user-1"})

	order, err := orders.PlaceOrder(ctx, "user-1", []OrderLine{
		{ProductID: tee.ProductID, Quantity: 2},
		{ProductID: skirt.ProductID, Quantity: 1},
	}, decimal.RequireFromString("1999"))
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusCompleted, order.Status)
	assert.Equal(t, model.PaymentMethodRazorpay, order.PaymentMethod)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "499.50", order.Items[0].Price.StringFixed(2))

	cart, err := env.carts.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart, "cart is cleared")

	notifications, err := env.notifications.FindByUserID(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Order Placed Successfully!", notifications[0].Title)
	assert.Equal(t, "Your order of Rs. 1999.00 has been placed successfully.", notifications[0].Message)

	require.Len(t, *events, 1, "published once, after commit")
	assert.Equal(t, "user-1", (*events)[0].UserID)
}

func TestOrderService_PlaceOrderRollsBack(t *testing.T) {
	env := setupServiceTest(t)
	orders := env.orderService()
	ctx := context.Background()
	tee := env.seedProduct(t, "Cloud Tee", "100")

	_, err := env.carts.AddOne(ctx, "user-1", tee.ProductID)
	require.NoError(t, err)
	events := env.collect(t, realtime.Filter{Table: "notifications"})

	tests := []struct {
		name    string
		lines   []OrderLine
		total   string
		wantErr error
	}{
		{name: "Total mismatch", lines: []OrderLine{{ProductID: tee.ProductID, Quantity: 1}}, total: "90", wantErr: ErrTotalMismatch},
		{name: "Unknown product", lines: []OrderLine{{ProductID: tee.ProductID, Quantity: 1}, {ProductID: "missing", Quantity: 1}}, total: "100", wantErr: ErrProductNotFound},
		{name: "Zero quantity", lines: []OrderLine{{ProductID: tee.ProductID, Quantity: 0}}, total: "0", wantErr: ErrInvalidQuantity},
		{name: "No lines", total: "0", wantErr: ErrEmptyCart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orders.PlaceOrder(ctx, "user-1", tt.lines, decimal.RequireFromString(tt.total))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	placed, err := env.orders.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, placed)

	cart, err := env.carts.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, cart, 1, "cart survives a failed order")

	hasUnread, err := env.notifications.HasUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, hasUnread)
	assert.Empty(t, *events)
}

func TestOrderService_CheckoutFromCart(t *testing.T) {
	env := setupServiceTest(t)
	orders := env.orderService()
	ctx := context.Background()
	tee := env.seedProduct(t, "Cloud Tee", "250.25")

	_, err := orders.CheckoutFromCart(ctx, "user-1")
	assert.ErrorIs(t, err, ErrProfileIncomplete, "no profile")

	env.seedProfile(t, "user-1", "Mina", "")
	_, err = orders.CheckoutFromCart(ctx, "user-1")
	assert.ErrorIs(t, err, ErrProfileIncomplete, "no phone")

	require.NoError(t, env.profiles.Save(ctx, &model.Profile{ID: "user-1", Name: "Mina", Phone: "9876543210"}))
	_, err = orders.CheckoutFromCart(ctx, "user-1")
	assert.ErrorIs(t, err, ErrProfileIncomplete, "no address")

	require.NoError(t, env.addresses.Replace(ctx, "user-1", &model.Address{
		AddressLine1: "1 Candy Lane", City: "Pune", State: "MH", PostalCode: "411001", Country: "India",
	}))
	_, err = orders.CheckoutFromCart(ctx, "user-1")
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = env.carts.AddOne(ctx, "user-1", tee.ProductID)
	require.NoError(t, err)
	_, err = env.carts.AddOne(ctx, "user-1", tee.ProductID)
	require.NoError(t, err)

	order, err := orders.CheckoutFromCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "500.50", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	env := setupServiceTest(t)
	orders := env.orderService()
	ctx := context.Background()
	tee := env.seedProduct(t, "Cloud Tee", "100")

	order, err := orders.PlaceOrder(ctx, "user-1", []OrderLine{{ProductID: tee.ProductID, Quantity: 1}}, decimal.NewFromInt(100))
	require.NoError(t, err)
	events := env.collect(t, realtime.Filter{Table: "notifications", UserID: "user-1"})

	updated, err := orders.UpdateOrderStatus(ctx, order.ID, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)

	notifications, err := env.notifications.FindByUserID(ctx, "user-1", 1)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Order Status Updated", notifications[0].Title)
	assert.Equal(t, `Your order #`+order.ID[:8]+` status has been updated to "cancelled".`, notifications[0].Message)
	assert.Len(t, *events, 1)

	_, err = orders.UpdateOrderStatus(ctx, order.ID, "shipped")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
	_, err = orders.UpdateOrderStatus(ctx, "missing", model.OrderStatusPending)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Len(t, *events, 1)
}

func TestOrderService_GetOrderByID(t *testing.T) {
	env := setupServiceTest(t)
	orders := env.orderService()
	ctx := context.Background()
	tee := env.seedProduct(t, "Cloud Tee", "100")

	order, err := orders.PlaceOrder(ctx, "user-1", []OrderLine{{ProductID: tee.ProductID, Quantity: 1}}, decimal.NewFromInt(100))
	require.NoError(t, err)

	found, err := orders.GetOrderByID(ctx, "user-1", order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	require.NotNil(t, found.Items[0].Product)
	assert.Equal(t, "Cloud Tee", found.Items[0].Product.Name)

	_, err = orders.GetOrderByID(ctx, "user-2", order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	history, err := orders.GetUserOrders(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
