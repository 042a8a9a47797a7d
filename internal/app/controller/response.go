package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	apperrors "github.com/pasteldream/pastel-backend/internal/errors"
	"github.com/pasteldream/pastel-backend/internal/messaging"
	"github.com/pasteldream/pastel-backend/internal/middleware"
	"github.com/pasteldream/pastel-backend/pkg/util"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// serviceErrors maps service sentinels to responses. The error text is
// sent as the message.
var serviceErrors = []errorMapping{
	{service.ErrMissingCredentials, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials},
	{service.ErrEmailAlreadyExists, http.StatusConflict, apperrors.AuthEmailAlreadyExists},
	{service.ErrEmailNotConfirmed, http.StatusForbidden, apperrors.AuthEmailNotConfirmed},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid},
	{service.ErrSessionNotFound, http.StatusUnauthorized, apperrors.AuthTokenRevoked},
	{service.ErrInvalidLink, http.StatusBadRequest, apperrors.AuthLinkInvalid},
	{service.ErrIdentityNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrOAuthProviderDisabled, http.StatusBadRequest, apperrors.AuthOAuthDisabled},
	{service.ErrInvalidOAuthState, http.StatusBadRequest, apperrors.AuthOAuthFailed},
	{service.ErrOAuthExchange, http.StatusBadGateway, apperrors.AuthOAuthFailed},
	{util.ErrPasswordTooShort, http.StatusBadRequest, apperrors.AuthWeakPassword},
	{util.ErrExpiredToken, http.StatusUnauthorized, apperrors.AuthTokenExpired},
	{util.ErrInvalidToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid},

	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ProductNotFound},
	{service.ErrProductUnavailable, http.StatusConflict, apperrors.ProductUnavailable},
	{service.ErrInvalidProduct, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.CartItemNotFound},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrWishlistItemNotFound, http.StatusNotFound, apperrors.WishlistNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound},
	{service.ErrEmptyCart, http.StatusBadRequest, apperrors.CartEmpty},
	{service.ErrTotalMismatch, http.StatusConflict, apperrors.OrderTotalMismatch},
	{service.ErrProfileIncomplete, http.StatusUnprocessableEntity, apperrors.ProfileIncomplete},
	{service.ErrInvalidOrderStatus, http.StatusBadRequest, apperrors.OrderInvalidStatus},
	{service.ErrProfileNotFound, http.StatusNotFound, apperrors.ProfileNotFound},
	{service.ErrAddressNotFound, http.StatusNotFound, apperrors.AddressNotFound},
	{service.ErrInvalidProfile, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrInvalidAddress, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrNotificationNotFound, http.StatusNotFound, apperrors.NotificationMissing},
	{repository.ErrInvalidRow, http.StatusBadRequest, apperrors.ValidationInvalidInput},

	{messaging.ErrNotConfigured, http.StatusServiceUnavailable, apperrors.ContactUnavailable},
	{messaging.ErrMissingMessage, http.StatusBadRequest, apperrors.ValidationRequired},
}

// respondError writes the mapped response for err, or a 500 with the parsed
// backend message when err is not a known sentinel.
func respondError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			log.Warn(action+" rejected", map[string]interface{}{
				"error": err.Error(),
				"code":  m.code,
			})
			apperrors.RespondWithError(c, m.status, m.code, err.Error())
			return
		}
	}

	log.Error(action+" failed", err, nil)
	info := apperrors.ParseError(err, action)
	apperrors.RespondWithError(c, info.Status(), info.Code, info.Message)
}

// requireUserID reads the authenticated user or writes a 401.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return "", false
	}
	return userID, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return false
	}
	return true
}
