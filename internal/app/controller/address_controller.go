package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/pasteldream/pastel-backend/internal/middleware"
)

type AddressController struct {
	profileService service.ProfileService
}

func NewAddressController(profileService service.ProfileService) *AddressController {
	return &AddressController{
		profileService: profileService,
	}
}

type AddressRequest struct {
	AddressLine1 string `json:"address_line_1" binding:"required"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	PostalCode   string `json:"postal_code" binding:"required"`
	Country      string `json:"country" binding:"required"`
}

// ListAddresses
// GET /api/v1/addresses
func (ctrl *AddressController) ListAddresses(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	addresses, err := ctrl.profileService.GetAddresses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "List addresses")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// ReplaceAddress deletes the caller's addresses and stores this one as the
// default
// PUT /api/v1/addresses
func (ctrl *AddressController) ReplaceAddress(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req AddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := ctrl.profileService.ReplaceAddress(c.Request.Context(), userID, &model.Address{
		UserID:       userID,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
	})
	if err != nil {
		respondError(c, err, "Save address")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Address replaced", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
	})
	c.JSON(http.StatusOK, gin.H{"address": address})
}

// DeleteAddress
// DELETE /api/v1/addresses/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := ctrl.profileService.DeleteAddress(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "Delete address")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}
