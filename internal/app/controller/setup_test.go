package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/pasteldream/pastel-backend/internal/db"
	"github.com/pasteldream/pastel-backend/internal/middleware"
	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type controllerEnv struct {
	db     *gorm.DB
	feed   *realtime.MemoryFeed
	router *gin.Engine

	products      service.ProductService
	carts         service.CartService
	orders        service.OrderService
	notifications service.NotificationService
	profiles      service.ProfileService
	admin         service.AdminService
}

func setupControllerTest(t *testing.T) *controllerEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	feed := realtime.NewMemoryFeed()
	require.NoError(t, realtime.RegisterChangeCapture(testDB, feed, "notifications"))

	productRepo := repository.NewProductRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	notificationRepo := repository.NewNotificationRepository(testDB)
	profileRepo := repository.NewProfileRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)
	adminRepo := repository.NewAdminRepository(testDB)

	notifications := service.NewNotificationService(notificationRepo, profileRepo)

	gin.SetMode(gin.TestMode)
	return &controllerEnv{
		db:            testDB,
		feed:          feed,
		router:        gin.New(),
		products:      service.NewProductService(productRepo, notifications),
		carts:         service.NewCartService(cartRepo, productRepo),
		orders:        service.NewOrderService(testDB, orderRepo, cartRepo, notificationRepo, profileRepo, addressRepo, feed),
		notifications: notifications,
		profiles:      service.NewProfileService(profileRepo, addressRepo),
		admin:         service.NewAdminService(adminRepo, productRepo, orderRepo, profileRepo),
	}
}

// asUser sets the caller the way Authenticate does.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func (e *controllerEnv) seedProduct(t *testing.T, name, category, price string, active bool) *model.Product {
	product := &model.Product{
		Name:        name,
		Description: name + " in soft pastel cotton",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		IsActive:    true,
	}
	require.NoError(t, e.db.Create(product).Error)
	if !active {
		require.NoError(t, e.db.Model(product).Update("is_active", false).Error)
		product.IsActive = false
	}
	return product
}

func (e *controllerEnv) seedProfile(t *testing.T, id, name, phone string) *model.Profile {
	profile := &model.Profile{ID: id, Name: name, Phone: phone, Email: id + "@example.com"}
	require.NoError(t, e.db.Create(profile).Error)
	return profile
}

func (e *controllerEnv) seedAddress(t *testing.T, userID string) {
	require.NoError(t, e.db.Create(&model.Address{
		UserID:       userID,
		AddressLine1: "12 Lavender Lane",
		City:         "Pune",
		State:        "MH",
		PostalCode:   "411001",
		Country:      "India",
		IsDefault:    true,
	}).Error)
}

func (e *controllerEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func countRows(t *testing.T, testDB *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	var n int64
	q := testDB.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
