package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/service"
)

type ProfileController struct {
	profileService service.ProfileService
}

func NewProfileController(profileService service.ProfileService) *ProfileController {
	return &ProfileController{
		profileService: profileService,
	}
}

type ProfileRequest struct {
	Name   string `json:"name" binding:"required"`
	Age    *int   `json:"age" binding:"omitempty,gte=0,lte=150"`
	Gender string `json:"gender"`
	Email  string `json:"email" binding:"omitempty,email"`
	Phone  string `json:"phone"`
}

// GetProfile
// GET /api/v1/profile
func (ctrl *ProfileController) GetProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	profile, err := ctrl.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Get profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// SaveProfile upserts the caller's profile
// PUT /api/v1/profile
func (ctrl *ProfileController) SaveProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req ProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := ctrl.profileService.SaveProfile(c.Request.Context(), userID, service.ProfileInput{
		Name:   req.Name,
		Age:    req.Age,
		Gender: req.Gender,
		Email:  req.Email,
		Phone:  req.Phone,
	})
	if err != nil {
		respondError(c, err, "Save profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
