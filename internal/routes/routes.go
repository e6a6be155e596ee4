package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ecommerce_back_end/internal/cache"
	"ecommerce_back_end/internal/config"
	"ecommerce_back_end/internal/handlers"
	"ecommerce_back_end/internal/invoice"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/repository"
	"ecommerce_back_end/internal/services"
)

// Deps regroupe tout ce dont les routes ont besoin; construit dans main.
type Deps struct {
	Config   *config.Config
	Store    *repository.Store
	Auth     *services.AuthService
	Catalog  *services.CatalogService
	Coupons  *services.CouponService
	Carts    *services.CartService
	Orders   *services.OrderService
	Events   cache.CartEvents
	Counter  middleware.AttemptCounter
	Invoices *invoice.Renderer
	// Health vérifie les dépendances externes; nil si rien à vérifier.
	Health func() map[string]string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	corsCfg := cors.Config{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "ecommerce_back_end",
			"message": "API e-commerce : catalogue, panier, coupons et commandes",
			"api":     "/api",
		})
	})
	r.GET("/health", func(c *gin.Context) {
		checks := map[string]string{}
		if d.Health != nil {
			checks = d.Health()
		}
		status := http.StatusOK
		for _, v := range checks {
			if v != "ok" {
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	})

	authRequired := middleware.AuthRequired(d.Auth)
	api := r.Group("/api")
	if d.Counter != nil {
		api.Use(middleware.APIRateLimit(d.Counter, d.Config.RateLimitRequests, d.Config.RateLimitWindow))
	}

	authH := handlers.NewAuthHandler(d.Auth)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		if d.Counter != nil {
			auth.POST("/login", middleware.LoginRateLimit(d.Counter, d.Config.LoginMaxAttempts, d.Config.LoginWindow), authH.Login)
		} else {
			auth.POST("/login", authH.Login)
		}
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/logout", authRequired, authH.Logout)
		auth.GET("/me", authRequired, authH.Me)
		auth.PUT("/me", authRequired, authH.UpdateMe)
		auth.GET("/:provider", authH.BeginAuth)
		auth.GET("/:provider/callback", authH.CallbackAuth)
	}

	productH := handlers.NewProductHandler(d.Catalog)
	products := api.Group("/products")
	{
		products.GET("", productH.List)
		products.GET("/search", productH.Search)
		products.GET("/:id", productH.Get)

		admin := products.Group("", authRequired, middleware.RequireAdmin)
		admin.POST("", productH.Create)
		admin.PUT("/:id", productH.Update)
		admin.DELETE("/:id", productH.Delete)
		admin.PUT("/:id/stock", productH.UpdateStock)
		admin.GET("/:id/movements", productH.Movements)
		admin.POST("/:id/image", productH.UploadImage)
	}

	cartH := handlers.NewCartHandler(d.Carts, d.Events)
	cart := api.Group("/cart", authRequired)
	{
		cart.GET("", cartH.Get)
		cart.POST("", cartH.Add)
		cart.DELETE("", cartH.Clear)
		cart.GET("/ws", cartH.WebSocket(handlers.NewUpgrader(d.Config.CORSOrigins)))
		cart.PUT("/:product_id", cartH.Update)
		cart.DELETE("/:product_id", cartH.Remove)
	}

	orderH := handlers.NewOrderHandler(d.Orders, d.Store.Users, d.Invoices)
	orders := api.Group("/orders", authRequired)
	{
		orders.POST("", orderH.Create)
		orders.GET("", orderH.List)
		orders.GET("/:id", orderH.Get)
		orders.GET("/:id/invoice", orderH.Invoice)
		orders.POST("/:id/cancel", orderH.Cancel)
		orders.PUT("/:id/status", middleware.RequireAdmin, orderH.UpdateStatus)
	}

	couponH := handlers.NewCouponHandler(d.Coupons)
	coupons := api.Group("/coupons")
	{
		coupons.POST("/validate", couponH.Validate)

		admin := coupons.Group("", authRequired, middleware.RequireAdmin)
		admin.POST("", couponH.Create)
		admin.GET("", couponH.List)
		admin.GET("/:code", couponH.Get)
		admin.PUT("/:code", couponH.Update)
		admin.DELETE("/:code", couponH.Delete)
	}
}
