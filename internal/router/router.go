package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/config"
	"github.com/pasteldream/pastel-backend/internal/app/controller"
	"github.com/pasteldream/pastel-backend/internal/middleware"
)

// Controllers groups every HTTP handler set mounted by the router.
type Controllers struct {
	Auth          *controller.AuthController
	Products      *controller.ProductController
	Cart          *controller.CartController
	Wishlist      *controller.WishlistController
	Orders        *controller.OrderController
	Notifications *controller.NotificationController
	Profile       *controller.ProfileController
	Addresses     *controller.AddressController
	Admin         *controller.AdminController
	Upload        *controller.UploadController
	Contact       *controller.ContactController
	Realtime      *controller.RealtimeController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

func NewRouter(controllers Controllers, authMiddleware *middleware.AuthMiddleware, cfg *config.Config) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Pastel Dream API is running",
		})
	})

	ctl := r.controllers
	authn := r.authMiddleware.Authenticate()
	admin := r.authMiddleware.RequireAdmin()

	router.GET("/ws", ctl.Realtime.WebSocketHandler)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", ctl.Auth.SignUp)
			auth.POST("/signin", ctl.Auth.SignIn)
			auth.POST("/refresh", ctl.Auth.Refresh)
			auth.POST("/password/reset", ctl.Auth.RequestPasswordReset)
			auth.GET("/oauth/:provider", ctl.Auth.OAuthURL)
			auth.GET("/callback", ctl.Auth.Callback)

			auth.POST("/signout", authn, ctl.Auth.SignOut)
			auth.PUT("/password", authn, ctl.Auth.UpdatePassword)
			auth.GET("/session", authn, ctl.Auth.GetSession)
		}

		products := v1.Group("/products")
		{
			products.GET("", ctl.Products.ListProducts)
			products.GET("/shelves/:category", ctl.Products.Shelf)
			products.GET("/:id", ctl.Products.GetProduct)
			products.GET("/:id/contact", ctl.Contact.ContactSeller)
		}

		v1.POST("/contact", ctl.Contact.ContactUs)

		cart := v1.Group("/cart")
		cart.Use(authn)
		{
			cart.GET("", ctl.Cart.GetCart)
			cart.POST("", ctl.Cart.AddToCart)
			cart.PUT("/:id", ctl.Cart.UpdateCartItem)
			cart.DELETE("/:id", ctl.Cart.RemoveFromCart)
			cart.DELETE("", ctl.Cart.ClearCart)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(authn)
		{
			wishlist.GET("", ctl.Wishlist.GetWishlist)
			wishlist.GET("/products/:productId", ctl.Wishlist.IsLiked)
			wishlist.POST("/toggle", ctl.Wishlist.Toggle)
			wishlist.DELETE("/:id", ctl.Wishlist.Remove)
			wishlist.POST("/:id/move-to-cart", ctl.Wishlist.MoveToCart)
		}

		orders := v1.Group("/orders")
		orders.Use(authn)
		{
			orders.GET("", ctl.Orders.GetOrders)
			orders.GET("/:id", ctl.Orders.GetOrder)
			orders.POST("", ctl.Orders.CreateOrder)
			orders.POST("/checkout", ctl.Orders.Checkout)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(authn)
		{
			notifications.GET("", ctl.Notifications.GetNotifications)
			notifications.GET("/unread", ctl.Notifications.GetUnread)
			notifications.PUT("/read-all", ctl.Notifications.MarkAllAsRead)
			notifications.PUT("/:id/read", ctl.Notifications.MarkAsRead)
			notifications.DELETE("/:id", ctl.Notifications.DeleteNotification)
		}

		profile := v1.Group("/profile")
		profile.Use(authn)
		{
			profile.GET("", ctl.Profile.GetProfile)
			profile.PUT("", ctl.Profile.SaveProfile)
		}

		addresses := v1.Group("/addresses")
		addresses.Use(authn)
		{
			addresses.GET("", ctl.Addresses.ListAddresses)
			addresses.PUT("", ctl.Addresses.ReplaceAddress)
			addresses.DELETE("/:id", ctl.Addresses.DeleteAddress)
		}

		adm := v1.Group("/admin")
		adm.Use(authn, admin)
		{
			adm.GET("/dashboard", ctl.Admin.Dashboard)
			adm.GET("/users", ctl.Admin.ListUsers)
			adm.GET("/realtime", ctl.Realtime.Online)

			adm.GET("/orders", ctl.Admin.ListOrders)
			adm.GET("/orders/export", ctl.Admin.ExportOrders)
			adm.GET("/orders/:id", ctl.Admin.GetOrder)
			adm.PATCH("/orders/:id/status", ctl.Orders.UpdateOrderStatus)

			adm.POST("/products", ctl.Products.CreateProduct)
			adm.POST("/products/import", ctl.Admin.ImportProducts)
			adm.PUT("/products/:id", ctl.Products.UpdateProduct)
			adm.PATCH("/products/:id/active", ctl.Products.SetActive)
			adm.DELETE("/products/:id", ctl.Products.DeleteProduct)

			adm.POST("/uploads/product-image", ctl.Upload.UploadProductImage)
			adm.POST("/uploads/presigned-url", ctl.Upload.GeneratePresignedURL)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = allowedOrigins
	return cors.New(cfg)
}
