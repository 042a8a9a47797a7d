package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestIdentity_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		want     string
	}{
		{
			name:     "full name wins",
			identity: Identity{Email: "a@b.com", Metadata: datatypes.JSONMap{"full_name": "Asha Rao", "name": "Asha"}},
			want:     "Asha Rao",
		},
		{
			name:     "falls back to name",
			identity: Identity{Email: "a@b.com", Metadata: datatypes.JSONMap{"name": "Asha"}},
			want:     "Asha",
		},
		{
			name:     "falls back to email local part",
			identity: Identity{Email: "priya@example.com"},
			want:     "priya",
		},
		{
			name:     "falls back to User",
			identity: Identity{},
			want:     "User",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.identity.DisplayName())
		})
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, StringList{"pastel", "summer", "linen"}, ParseTags(" pastel, summer ,,linen "))
	assert.Empty(t, ParseTags(""))
}

func TestStringList_ValueScan(t *testing.T) {
	v, err := StringList{"pink", "lilac"}.Value()
	require.NoError(t, err)

	var got StringList
	require.NoError(t, got.Scan(v))
	assert.Equal(t, StringList{"pink", "lilac"}, got)

	require.NoError(t, got.Scan(nil))
	assert.Nil(t, got)
}

func TestStringList_Contains(t *testing.T) {
	tags := StringList{"pink", "lilac", "linen"}
	assert.True(t, tags.Contains(StringList{"pink", "linen"}))
	assert.False(t, tags.Contains(StringList{"pink", "denim"}))
}

func TestValidate_Product(t *testing.T) {
	ok := Product{Name: "Blush Midi Dress", Price: decimal.NewFromFloat(1499.5)}
	assert.NoError(t, Validate(ok))

	negative := Product{Name: "Blush Midi Dress", Price: decimal.NewFromInt(-1)}
	assert.Error(t, Validate(negative))

	unnamed := Product{Price: decimal.NewFromInt(10)}
	assert.Error(t, Validate(unnamed))
}

func TestValidate_CartItemIgnoresUnloadedProduct(t *testing.T) {
	item := CartItem{UserID: "u1", ProductID: "p1", Quantity: 1}
	assert.NoError(t, Validate(item))

	item.Quantity = 0
	assert.Error(t, Validate(item))
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusCompleted.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
}
