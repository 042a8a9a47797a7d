package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/pasteldream/pastel-backend/internal/messaging"
)

type ContactController struct {
	whatsApp       *messaging.WhatsApp
	productService service.ProductService
}

func NewContactController(whatsApp *messaging.WhatsApp, productService service.ProductService) *ContactController {
	return &ContactController{
		whatsApp:       whatsApp,
		productService: productService,
	}
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

// ContactSeller returns a WhatsApp link asking about one product
// GET /api/v1/products/:id/contact
func (ctrl *ContactController) ContactSeller(c *gin.Context) {
	product, err := ctrl.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Get product")
		return
	}
	link, err := ctrl.whatsApp.SellerLink(product)
	if err != nil {
		respondError(c, err, "Contact seller")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

// ContactUs returns a WhatsApp link carrying the contact form
// POST /api/v1/contact
func (ctrl *ContactController) ContactUs(c *gin.Context) {
	var req ContactRequest
	if !bindJSON(c, &req) {
		return
	}
	link, err := ctrl.whatsApp.ContactLink(req.Name, req.Email, req.Message)
	if err != nil {
		respondError(c, err, "Contact us")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}
