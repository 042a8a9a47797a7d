package service

import (
	"testing"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/internal/db"
	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/pasteldream/pastel-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	util.BcryptCost = bcrypt.MinCost
}

type testEnv struct {
	db   *gorm.DB
	feed *realtime.MemoryFeed

	products      repository.ProductRepository
	carts         repository.CartRepository
	wishlists     repository.WishlistRepository
	orders        repository.OrderRepository
	notifications repository.NotificationRepository
	profiles      repository.ProfileRepository
	addresses     repository.AddressRepository
	admins        repository.AdminRepository
}

// setupServiceTest opens a fresh database with notification change capture
// wired into an in-memory feed.
func setupServiceTest(t *testing.T) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	feed := realtime.NewMemoryFeed()
	require.NoError(t, realtime.RegisterChangeCapture(testDB, feed, "notifications"))

	return &testEnv{
		db:            testDB,
		feed:          feed,
		products:      repository.NewProductRepository(testDB),
		carts:         repository.NewCartRepository(testDB),
		wishlists:     repository.NewWishlistRepository(testDB),
		orders:        repository.NewOrderRepository(testDB),
		notifications: repository.NewNotificationRepository(testDB),
		profiles:      repository.NewProfileRepository(testDB),
		addresses:     repository.NewAddressRepository(testDB),
		admins:        repository.NewAdminRepository(testDB),
	}
}

func (e *testEnv) orderService() OrderService {
	return NewOrderService(e.db, e.orders, e.carts, e.notifications, e.profiles, e.addresses, e.feed)
}

func (e *testEnv) cartService() CartService {
	return NewCartService(e.carts, e.products)
}

func (e *testEnv) seedProduct(t *testing.T, name, price string) *model.Product {
	product := &model.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    "tops",
		IsActive:    true,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *testEnv) seedProfile(t *testing.T, id, name, phone string) *model.Profile {
	profile := &model.Profile{ID: id, Name: name, Phone: phone}
	require.NoError(t, e.db.Create(profile).Error)
	return profile
}

// collect records every event on the feed matching f.
func (e *testEnv) collect(t *testing.T, f realtime.Filter) *[]realtime.Event {
	events := &[]realtime.Event{}
	sub, err := e.feed.Subscribe(f, func(ev realtime.Event) {
		*events = append(*events, ev)
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })
	return events
}
