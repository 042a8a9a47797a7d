package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		context string
		code    string
		message string
	}{
		{"record not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), "get product", ResourceNotFound, "Product not found"},
		{"invalid row", fmt.Errorf("%w: products", repository.ErrInvalidRow), "list products", ValidationInvalidInput, "The data is not valid"},
		{"postgres duplicate email", errors.New(`ERROR: duplicate key value violates unique constraint "idx_identities_email" (SQLSTATE 23505)`), "sign up", AuthEmailAlreadyExists, "User already registered"},
		{"sqlite duplicate email", errors.New("UNIQUE constraint failed: identities.email"), "sign up", AuthEmailAlreadyExists, "User already registered"},
		{"sqlite duplicate wishlist", errors.New("UNIQUE constraint failed: wishlist_items.user_id, wishlist_items.product_id"), "add", ResourceAlreadyExists, "This product is already in your wishlist"},
		{"foreign key product", errors.New(`insert or update on table "cart_items" violates foreign key constraint "fk_cart_items_product" on product_id`), "add to cart", ProductNotFound, "Product not found"},
		{"sqlite not null", errors.New("NOT NULL constraint failed: products.name"), "create product", ValidationRequired, "name is required"},
		{"network", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "list", InternalExternalAPI, "Could not reach a backing service. Please try again later"},
		{"unknown on update", errors.New("boom"), "update order", InternalServerError, "Could not update. Please try again later"},
		{"service error", &ServiceError{Code: CartEmpty, Message: "Your cart is empty"}, "checkout", CartEmpty, "Your cart is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.code, info.Code)
			assert.Equal(t, tt.message, info.Message)
		})
	}
}

func TestServiceError(t *testing.T) {
	base := errors.New("pq: relation does not exist")
	se := Wrap(base, "list products")

	assert.ErrorIs(t, se, base)
	assert.Equal(t, InternalServerError, se.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR: Something went wrong. Please try again later", se.Error())
	assert.Equal(t, "plain", (&ServiceError{Message: "plain"}).Error())
}
