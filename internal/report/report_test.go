package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteOrders(t *testing.T) {
	orders := []service.AdminOrder{
		{
			Order: model.Order{
				ID:            "0b0e6f40-aaaa-bbbb-cccc-000000000001",
				TotalAmount:   decimal.RequireFromString("350.5"),
				Status:        model.OrderStatusCompleted,
				PaymentMethod: model.PaymentMethodRazorpay,
				PaymentStatus: model.PaymentStatusPaid,
				CreatedAt:     time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
				Items: []model.OrderItem{
					{Quantity: 2},
					{Quantity: 1},
				},
			},
			Customer: &model.Profile{Name: "Mina", Phone: "9876543210", Email: "mina@example.com"},
		},
		{
			Order: model.Order{ID: "no-customer", Status: model.OrderStatusPending},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, orders))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ordersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Order ID", rows[0][0])
	assert.Equal(t, []string{
		"0b0e6f40-aaaa-bbbb-cccc-000000000001", "2026-03-01 10:30", "Mina", "9876543210",
		"mina@example.com", "completed", "razorpay", "paid", "3", "350.5",
	}, rows[1])
	assert.Equal(t, "no-customer", rows[2][0])
	assert.Equal(t, "", rows[2][2])
}

func TestReadProducts(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]interface{}{
		{"name", "description", "price", "image_url", "tags", "tag", "category", "is_active"},
		{"Pastel Hoodie", "Soft", "1299", "", "cozy, winter", "hot", "tops", "true"},
		{"Cloud Tee", "", "499.50", "", "", "", "new-arrivals"},
		{"", "", "", "", "", "", "", ""},
		{"Broken", "", "abc"},
		{"Hidden", "", "10", "", "", "", "", "no"},
	}
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	products, skipped, err := ReadProducts(&buf)
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "Pastel Hoodie", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(1299)))
	assert.Equal(t, "cozy, winter", products[0].Tags)
	assert.True(t, products[0].IsActive)
	assert.Equal(t, "new-arrivals", products[1].Category)
	assert.True(t, products[1].IsActive, "is_active defaults to true")

	require.Len(t, skipped, 2)
	assert.Equal(t, 5, skipped[0].Row)
	assert.Contains(t, skipped[0].Error(), "invalid price")
	assert.Equal(t, 6, skipped[1].Row)
}
