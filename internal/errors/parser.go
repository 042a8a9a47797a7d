package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"gorm.io/gorm"
)

type ErrorInfo struct {
	Code    string
	Message string
}

// Status is the HTTP status that goes with the parsed code.
func (i ErrorInfo) Status() int {
	switch i.Code {
	case ResourceNotFound, ProductNotFound, OrderNotFound:
		return http.StatusNotFound
	case ResourceAlreadyExists, ResourceConflict, AuthEmailAlreadyExists:
		return http.StatusConflict
	case ValidationInvalidInput, ValidationRequired, ValidationInvalidID, ValidationInvalidRange:
		return http.StatusBadRequest
	case InternalExternalAPI:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ParseError turns a database or transport error into a code and a message
// safe to show. context names the operation, e.g. "create product".
// Postgres and sqlite constraint messages are both recognised.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return ErrorInfo{Code: se.Code, Message: se.Message}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}
	if errors.Is(err, repository.ErrInvalidRow) {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "The data is not valid"}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint"):
		return parseDuplicateKeyError(lower)
	case strings.Contains(lower, "foreign key constraint"):
		return parseForeignKeyError(lower)
	case strings.Contains(lower, "not-null constraint") || strings.Contains(lower, "not null constraint"):
		return parseNotNullError(lower)
	case strings.Contains(lower, "check constraint"):
		return ErrorInfo{Code: ValidationInvalidInput, Message: "The data is not valid"}
	case strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "timeout"):
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Could not reach a backing service. Please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(lower string) ErrorInfo {
	switch {
	case strings.Contains(lower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "User already registered"}
	case strings.Contains(lower, "cart_items"), strings.Contains(lower, "idx_cart_user_product"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This product is already in your cart"}
	case strings.Contains(lower, "wishlist"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This product is already in your wishlist"}
	case strings.Contains(lower, "admins"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "User is already an admin"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func parseForeignKeyError(lower string) ErrorInfo {
	if strings.Contains(lower, "still referenced") {
		return ErrorInfo{Code: ResourceConflict, Message: "Other records still depend on this one"}
	}
	switch {
	case strings.Contains(lower, "product_id"):
		return ErrorInfo{Code: ProductNotFound, Message: "Product not found"}
	case strings.Contains(lower, "order_id"):
		return ErrorInfo{Code: OrderNotFound, Message: "Order not found"}
	case strings.Contains(lower, "user_id"):
		return ErrorInfo{Code: ResourceNotFound, Message: "User not found"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record was not found"}
}

func parseNotNullError(lower string) ErrorInfo {
	for _, field := range []string{"email", "name", "price", "title", "user_id"} {
		if strings.Contains(lower, field) {
			return ErrorInfo{Code: ValidationRequired, Message: field + " is required"}
		}
	}
	return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	for _, entity := range []string{"product", "order", "cart", "wishlist", "notification", "profile", "address", "user"} {
		if strings.Contains(lower, entity) {
			return strings.ToUpper(entity[:1]) + entity[1:] + " not found"
		}
	}
	return "The requested record was not found"
}

func defaultMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "create"):
		return "Could not save. Please try again later"
	case strings.Contains(lower, "update"):
		return "Could not update. Please try again later"
	case strings.Contains(lower, "delete"):
		return "Could not delete. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond writes the parsed error with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
