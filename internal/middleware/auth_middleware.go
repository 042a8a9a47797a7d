package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/pasteldream/pastel-backend/internal/errors"
	"github.com/pasteldream/pastel-backend/pkg/util"
)

// Context keys for the authenticated caller.
const (
	UserIDKey      = "user_id"
	UserEmailKey   = "user_email"
	SessionIDKey   = "session_id"
	AccessTokenKey = "access_token"
)

// TokenVerifier validates an access token against its live session.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, accessToken string) (*util.TokenClaims, error)
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	admins   AdminChecker
}

func NewAuthMiddleware(verifier TokenVerifier, admins AdminChecker) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		admins:   admins,
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter used by WebSocket upgrades.
func bearerToken(c *gin.Context) (token string, malformed bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
			return "", true
		}
		return strings.TrimSpace(value), false
	}
	return c.Query("token"), false
}

// Authenticate requires a valid access token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, malformed := bearerToken(c)
		if malformed {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Authorization header must be Bearer <token>")
			c.Abort()
			return
		}
		if token == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		claims, err := m.verifier.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			switch {
			case stderrors.Is(err, util.ErrExpiredToken):
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Session has expired")
			case stderrors.Is(err, service.ErrSessionNotFound):
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "Session has ended")
			default:
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid access token")
			}
			c.Abort()
			return
		}

		setCaller(c, claims, token)
		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id":    claims.IdentityID(),
			"session_id": claims.SessionID,
		})
		c.Next()
	}
}

// OptionalAuthenticate sets the caller when a valid token is present and
// otherwise continues as a guest.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, malformed := bearerToken(c)
		if malformed || token == "" {
			c.Next()
			return
		}

		claims, err := m.verifier.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			GetLoggerFromContext(c).Debug("Token validation failed - continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		setCaller(c, claims, token)
		c.Next()
	}
}

// RequireAdmin checks the admins table for the authenticated caller.
// It must run after Authenticate.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		userID, ok := GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		isAdmin, err := m.admins.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			log.Error("Admin check failed", err, map[string]interface{}{
				"user_id": userID,
			})
			errors.InternalError(c, "")
			c.Abort()
			return
		}
		if !isAdmin {
			log.Warn("Admin access denied", map[string]interface{}{
				"user_id": userID,
				"path":    c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzAdminOnly, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func setCaller(c *gin.Context, claims *util.TokenClaims, token string) {
	c.Set(UserIDKey, claims.IdentityID())
	c.Set(UserEmailKey, claims.Email)
	c.Set(SessionIDKey, claims.SessionID)
	c.Set(AccessTokenKey, token)
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, UserIDKey)
}

func GetUserEmail(c *gin.Context) (string, bool) {
	return getString(c, UserEmailKey)
}

func GetSessionID(c *gin.Context) (string, bool) {
	return getString(c, SessionIDKey)
}

func GetAccessToken(c *gin.Context) (string, bool) {
	return getString(c, AccessTokenKey)
}
