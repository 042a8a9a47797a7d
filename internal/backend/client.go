// Package backend builds the one shared handle over the database, identity
// service, object storage and realtime feed.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pasteldream/pastel-backend/config"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/pasteldream/pastel-backend/internal/db"
	"github.com/pasteldream/pastel-backend/internal/messaging"
	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/pasteldream/pastel-backend/internal/storage"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"github.com/pasteldream/pastel-backend/pkg/redis"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	ErrMissingURL = errors.New("BACKEND_URL is required")
	ErrMissingKey = errors.New("BACKEND_KEY is required")
)

// Realtime drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNATS   = "nats"
)

// WatchedTables raise INSERT events on the realtime feed.
var WatchedTables = []string{"notifications"}

type Repositories struct {
	Products      repository.ProductRepository
	Carts         repository.CartRepository
	Wishlists     repository.WishlistRepository
	Orders        repository.OrderRepository
	Notifications repository.NotificationRepository
	Profiles      repository.ProfileRepository
	Addresses     repository.AddressRepository
	Admins        repository.AdminRepository
	Identities    repository.IdentityRepository
	Sessions      repository.AuthSessionRepository
	Tokens        repository.AuthTokenRepository
	OAuthStates   repository.OAuthStateRepository
}

type Services struct {
	Auth          service.AuthService
	Products      service.ProductService
	Carts         service.CartService
	Wishlists     service.WishlistService
	Orders        service.OrderService
	Notifications service.NotificationService
	Profiles      service.ProfileService
	Admin         service.AdminService
}

// Client is built once at startup and shared read-only.
type Client struct {
	Config   *config.Config
	DB       *gorm.DB
	Feed     realtime.Feed
	Storage  *storage.Bucket
	WhatsApp *messaging.WhatsApp
	Repos    Repositories
	Services Services

	closers []func() error
}

type options struct {
	dialector gorm.Dialector
	feed      realtime.Feed
	mailer    service.Mailer
	oauth     *service.OAuthProvider
}

type Option func(*options)

// WithDialector replaces the postgres dialector, used by tests with sqlite.
func WithDialector(d gorm.Dialector) Option {
	return func(o *options) { o.dialector = d }
}

// WithFeed uses f instead of building one from REALTIME_DRIVER. The caller
// keeps ownership of f.
func WithFeed(f realtime.Feed) Option {
	return func(o *options) { o.feed = f }
}

func WithMailer(m service.Mailer) Option {
	return func(o *options) { o.mailer = m }
}

// WithOAuthProvider replaces the Google provider built from config.
func WithOAuthProvider(p *service.OAuthProvider) Option {
	return func(o *options) { o.oauth = p }
}

// New validates cfg and connects every backing service. It fails fast on a
// missing BACKEND_URL or BACKEND_KEY.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Backend.URL) == "" {
		return nil, ErrMissingURL
	}
	if strings.TrimSpace(cfg.Backend.Key) == "" {
		return nil, ErrMissingKey
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.dialector == nil {
		o.dialector = postgres.Open(cfg.Backend.URL)
	}

	c := &Client{Config: cfg}
	if err := c.connect(ctx, o); err != nil {
		c.Close()
		return nil, err
	}

	for _, w := range cfg.Warnings() {
		logger.Warn(w, nil)
	}
	logger.Info("Backend client ready", map[string]interface{}{
		"dialect":         o.dialector.Name(),
		"realtime_driver": cfg.Realtime.Driver,
	})
	return c, nil
}

func (c *Client) connect(ctx context.Context, o *options) error {
	cfg := c.Config

	database, err := db.Open(o.dialector, cfg.Backend.MaxIdleConns, cfg.Backend.MaxOpenConns)
	if err != nil {
		return err
	}
	c.DB = database
	c.closers = append(c.closers, func() error { return db.Close(database) })

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.Redis.Enabled || cfg.Realtime.Driver == DriverRedis {
		if err := redis.Init(&cfg.Redis); err != nil {
			return err
		}
		c.closers = append(c.closers, redis.Close)
	}

	if o.feed != nil {
		c.Feed = o.feed
	} else {
		feed, err := newFeed(ctx, cfg.Realtime)
		if err != nil {
			return err
		}
		c.Feed = feed
		c.closers = append(c.closers, feed.Close)
	}

	if err := realtime.RegisterChangeCapture(database, c.Feed, WatchedTables...); err != nil {
		return fmt.Errorf("failed to register change capture: %w", err)
	}

	c.Storage = storage.NewBucket(ctx, cfg.S3)
	c.WhatsApp = messaging.NewWhatsApp(cfg.Messaging.WhatsAppNumber)
	c.wire(o)
	return nil
}

func newFeed(ctx context.Context, cfg config.RealtimeConfig) (realtime.Feed, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return realtime.NewMemoryFeed(), nil
	case DriverRedis:
		return realtime.NewRedisFeed(ctx, redis.GetClient())
	case DriverNATS:
		return realtime.DialNATS(cfg.NATSURL)
	}
	return nil, fmt.Errorf("unknown REALTIME_DRIVER %q", cfg.Driver)
}

func (c *Client) wire(o *options) {
	database := c.DB
	r := Repositories{
		Products:      repository.NewProductRepository(database),
		Carts:         repository.NewCartRepository(database),
		Wishlists:     repository.NewWishlistRepository(database),
		Orders:        repository.NewOrderRepository(database),
		Notifications: repository.NewNotificationRepository(database),
		Profiles:      repository.NewProfileRepository(database),
		Addresses:     repository.NewAddressRepository(database),
		Admins:        repository.NewAdminRepository(database),
		Identities:    repository.NewIdentityRepository(database),
		Sessions:      repository.NewAuthSessionRepository(database),
		Tokens:        repository.NewAuthTokenRepository(database),
		OAuthStates:   repository.NewOAuthStateRepository(database),
	}
	c.Repos = r

	authOpts := []service.AuthOption{service.WithAuthFeed(c.Feed)}
	if o.mailer != nil {
		authOpts = append(authOpts, service.WithMailer(o.mailer))
	}
	if redis.GetClient() != nil {
		authOpts = append(authOpts, service.WithBlacklist(redis.Blacklist{}))
	}
	provider := o.oauth
	if provider == nil {
		provider = service.NewGoogleProvider(c.Config.OAuth.Google)
	}
	authOpts = append(authOpts, service.WithOAuthProvider(provider))

	auth := service.NewAuthService(service.AuthRepositories{
		Identities:  r.Identities,
		Sessions:    r.Sessions,
		Tokens:      r.Tokens,
		OAuthStates: r.OAuthStates,
	}, service.AuthSettings{
		SigningKey:   c.Config.Backend.Key,
		AccessTTL:    c.Config.Auth.AccessTokenExpiry,
		RefreshTTL:   c.Config.Auth.RefreshTokenExpiry,
		ConfirmEmail: c.Config.Auth.ConfirmEmail,
		SiteURL:      c.Config.Server.SiteURL,
	}, authOpts...)

	notifications := service.NewNotificationService(r.Notifications, r.Profiles)
	carts := service.NewCartService(r.Carts, r.Products)
	c.Services = Services{
		Auth:          auth,
		Products:      service.NewProductService(r.Products, notifications),
		Carts:         carts,
		Wishlists:     service.NewWishlistService(r.Wishlists, r.Products, carts),
		Orders:        service.NewOrderService(database, r.Orders, r.Carts, r.Notifications, r.Profiles, r.Addresses, c.Feed),
		Notifications: notifications,
		Profiles:      service.NewProfileService(r.Profiles, r.Addresses),
		Admin:         service.NewAdminService(r.Admins, r.Products, r.Orders, r.Profiles),
	}
}

// Close releases everything New opened, last opened first.
func (c *Client) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
