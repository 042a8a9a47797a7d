package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	apperrors "github.com/pasteldream/pastel-backend/internal/errors"
	"github.com/pasteldream/pastel-backend/internal/middleware"
	"github.com/pasteldream/pastel-backend/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminController struct {
	adminService   service.AdminService
	productService service.ProductService
}

func NewAdminController(adminService service.AdminService, productService service.ProductService) *AdminController {
	return &AdminController{
		adminService:   adminService,
		productService: productService,
	}
}

// Dashboard
// GET /api/v1/admin/dashboard
func (ctrl *AdminController) Dashboard(c *gin.Context) {
	stats, err := ctrl.adminService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "Load dashboard")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func orderQuery(c *gin.Context) (service.OrderQuery, bool) {
	q := service.OrderQuery{
		Status: model.OrderStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	if q.Status != "" && !q.Status.Valid() {
		apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "status must be pending, completed or cancelled")
		return q, false
	}
	return q, true
}

// ListOrders
// GET /api/v1/admin/orders?status=&search=
func (ctrl *AdminController) ListOrders(c *gin.Context) {
	q, ok := orderQuery(c)
	if !ok {
		return
	}
	orders, err := ctrl.adminService.ListOrders(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "List orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder returns the order with the customer profile and items
// GET /api/v1/admin/orders/:id
func (ctrl *AdminController) GetOrder(c *gin.Context) {
	order, err := ctrl.adminService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Get order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ExportOrders downloads the filtered orders as XLSX
// GET /api/v1/admin/orders/export?status=&search=
func (ctrl *AdminController) ExportOrders(c *gin.Context) {
	q, ok := orderQuery(c)
	if !ok {
		return
	}
	orders, err := ctrl.adminService.ListOrders(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "Export orders")
		return
	}

	var buf bytes.Buffer
	if err := report.WriteOrders(&buf, orders); err != nil {
		respondError(c, err, "Export orders")
		return
	}

	name := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportProducts creates one product per valid catalog row
// POST /api/v1/admin/products/import
func (ctrl *AdminController) ImportProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	defer file.Close()

	inputs, skipped, err := report.ReadProducts(file)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	created := 0
	for i, in := range inputs {
		if _, err := ctrl.productService.CreateProduct(c.Request.Context(), in); err != nil {
			log.Warn("Catalog row rejected", map[string]interface{}{
				"name":  in.Name,
				"error": err.Error(),
			})
			skipped = append(skipped, report.RowError{Row: i + 2, Reason: err.Error()})
			continue
		}
		created++
	}

	log.Info("Catalog imported", map[string]interface{}{
		"created": created,
		"skipped": len(skipped),
	})
	c.JSON(http.StatusOK, gin.H{
		"created": created,
		"skipped": skipped,
	})
}

// ListUsers
// GET /api/v1/admin/users
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	users, err := ctrl.adminService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "List users")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}
