package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderTest(t *testing.T) (*gorm.DB, OrderRepository, *model.Profile, *model.Product) {
	testDB := setupDB(t)
	user := seedProfile(t, testDB, "user-1", "Shopper")
	product := seedProduct(t, testDB, "Rose Cardigan", "tops", "750.00")
	return testDB, NewOrderRepository(testDB), user, product
}

func newTestOrder(userID string, product *model.Product, quantity int) *model.Order {
	return &model.Order{
		UserID:        userID,
		TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Status:        model.OrderStatusCompleted,
		PaymentMethod: model.PaymentMethodRazorpay,
		PaymentStatus: model.PaymentStatusPaid,
		Items: []model.OrderItem{
			{ProductID: product.ProductID, Quantity: quantity, Price: product.Price},
		},
	}
}

func TestOrderRepository_Create(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)
	ctx := context.Background()

	order := newTestOrder(user.ID, product, 2)
	require.NoError(t, repo.Create(ctx, order))
	assert.NotEmpty(t, order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "1500.00", found.TotalAmount.StringFixed(2))
	require.Len(t, found.Items, 1)
	require.NotNil(t, found.Items[0].Product)
	assert.Equal(t, "Rose Cardigan", found.Items[0].Product.Name)
}

func TestOrderRepository_FindByUserID(t *testing.T) {
	testDB, repo, user, product := setupOrderTest(t)
	ctx := context.Background()
	other := seedProfile(t, testDB, "user-2", "Other")

	older := newTestOrder(user.ID, product, 1)
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, older))
	newer := newTestOrder(user.ID, product, 3)
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, newTestOrder(other.ID, product, 1)))

	orders, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestOrderRepository_List(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)
	ctx := context.Background()

	completed := newTestOrder(user.ID, product, 1)
	require.NoError(t, repo.Create(ctx, completed))
	pending := newTestOrder(user.ID, product, 1)
	pending.Status = model.OrderStatusPending
	require.NoError(t, repo.Create(ctx, pending))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyPending, err := repo.List(ctx, model.OrderStatusPending)
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, pending.ID, onlyPending[0].ID)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)
	ctx := context.Background()

	order := newTestOrder(user.ID, product, 1)
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled))
	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, found.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", model.OrderStatusPending), gorm.ErrRecordNotFound)
}

func TestOrderRepository_WithTx(t *testing.T) {
	testDB, repo, user, product := setupOrderTest(t)
	ctx := context.Background()

	err := testDB.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).Create(ctx, newTestOrder(user.ID, product, 1)); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	require.ErrorIs(t, err, gorm.ErrInvalidData)

	orders, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders, "rolled back")
}
