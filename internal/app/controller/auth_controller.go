package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	apperrors "github.com/pasteldream/pastel-backend/internal/errors"
	"github.com/pasteldream/pastel-backend/internal/middleware"
)

type AuthController struct {
	authService    service.AuthService
	profileService service.ProfileService
	adminService   service.AdminService
}

func NewAuthController(authService service.AuthService, profileService service.ProfileService, adminService service.AdminService) *AuthController {
	return &AuthController{
		authService:    authService,
		profileService: profileService,
		adminService:   adminService,
	}
}

type SignUpRequest struct {
	Email    string                 `json:"email" binding:"required,email"`
	Password string                 `json:"password" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// SignUp registers an email identity
// POST /api/v1/auth/signup
func (ctrl *AuthController) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.authService.SignUp(c.Request.Context(), req.Email, req.Password, req.Metadata)
	if err != nil {
		respondError(c, err, "Sign up")
		return
	}
	ctrl.ensureProfile(c, result.Identity)

	c.JSON(http.StatusCreated, result)
}

// SignIn
// POST /api/v1/auth/signin
func (ctrl *AuthController) SignIn(c *gin.Context) {
	var req SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := ctrl.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Sign in")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SignOut ends the caller's session
// POST /api/v1/auth/signout
func (ctrl *AuthController) SignOut(c *gin.Context) {
	token, ok := middleware.GetAccessToken(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	if err := ctrl.authService.SignOut(c.Request.Context(), token); err != nil {
		respondError(c, err, "Sign out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Refresh rotates the refresh token
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err, "Refresh session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// RequestPasswordReset always answers 200 so emails cannot be probed.
// POST /api/v1/auth/password/reset
func (ctrl *AuthController) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ctrl.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "Request password reset")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent"})
}

// UpdatePassword
// PUT /api/v1/auth/password
func (ctrl *AuthController) UpdatePassword(c *gin.Context) {
	token, ok := middleware.GetAccessToken(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	var req UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	identity, err := ctrl.authService.UpdatePassword(c.Request.Context(), token, req.Password)
	if err != nil {
		respondError(c, err, "Update password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identity})
}

// GetSession returns the caller's session and admin flag
// GET /api/v1/auth/session
func (ctrl *AuthController) GetSession(c *gin.Context) {
	token, ok := middleware.GetAccessToken(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	session, err := ctrl.authService.GetSession(c.Request.Context(), token)
	if err != nil {
		respondError(c, err, "Get session")
		return
	}

	isAdmin, err := ctrl.adminService.IsAdmin(c.Request.Context(), session.Identity.ID)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Admin check failed", map[string]interface{}{
			"user_id": session.Identity.ID,
			"error":   err.Error(),
		})
		isAdmin = false
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "is_admin": isAdmin})
}

// OAuthURL returns the provider consent URL
// GET /api/v1/auth/oauth/:provider?redirect_to=
func (ctrl *AuthController) OAuthURL(c *gin.Context) {
	url, err := ctrl.authService.OAuthURL(c.Request.Context(), c.Param("provider"), c.Query("redirect_to"))
	if err != nil {
		respondError(c, err, "Start OAuth sign in")
		return
	}
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, url)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Callback resolves the session carried by a redirect (OAuth code and
// state, an email link token or an access token) and bootstraps the profile.
// GET /api/v1/auth/callback
func (ctrl *AuthController) Callback(c *gin.Context) {
	session, redirect, err := ctrl.authService.SessionFromURL(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respondError(c, err, "Auth callback")
		return
	}
	created := ctrl.ensureProfile(c, session.Identity)

	c.JSON(http.StatusOK, gin.H{
		"session":         session,
		"redirect_to":     redirect,
		"profile_created": created,
	})
}

// ensureProfile inserts the profile when absent. A failure is logged and
// does not fail the sign-in.
func (ctrl *AuthController) ensureProfile(c *gin.Context, identity *model.Identity) bool {
	if identity == nil {
		return false
	}
	created, err := ctrl.profileService.EnsureProfile(c.Request.Context(), identity)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to bootstrap profile", err, map[string]interface{}{
			"user_id": identity.ID,
		})
		return false
	}
	return created
}
