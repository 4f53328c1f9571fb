package router

import (
	"fmt"
	"strings"

	"github.com/denver-kabob/internal/cache"
	"github.com/denver-kabob/internal/config"
	adminhandlers "github.com/denver-kabob/internal/http/handlers/admin"
	publichandlers "github.com/denver-kabob/internal/http/handlers/public"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter registers middleware and every route
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "kabob"
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "Too many login attempts. Please try again in %d seconds.",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/time-slots", publicHandler.GetTimeSlots)
		}

		carts := apiV1.Group("/carts/:cart_id")
		{
			carts.GET("", publicHandler.GetCart)
			carts.DELETE("", publicHandler.ClearCart)
			carts.GET("/ws", publicHandler.CartSocket)
			carts.POST("/items", publicHandler.AddCartItem)
			carts.PATCH("/items/:line_id", publicHandler.UpdateCartItemQuantity)
			carts.PUT("/items/:line_id", publicHandler.ReplaceCartItem)
			carts.DELETE("/items/:line_id", publicHandler.RemoveCartItem)
		}

		apiV1.POST("/checkout/sessions", publicHandler.CreateCheckoutSession)
		apiV1.POST("/payments/webhook/stripe", publicHandler.StripeWebhook)

		orders := apiV1.Group("/orders")
		{
			orders.POST("/ensure", publicHandler.EnsureOrder)
			orders.GET("/lookup", publicHandler.LookupOrders)
			orders.GET("/by-session/:session_id", publicHandler.GetOrderBySession)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(cache.Client(), adminLoginRule, KeyByIP), adminHandler.Login)
			// token comes from the query string
			admin.GET("/orders/ws", adminHandler.OrdersSocket)

			authorized := admin.Group("", AdminJWTMiddleware(c.AuthService))
			{
				authorized.POST("/logout", adminHandler.Logout)
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.PATCH("/orders/:id", adminHandler.UpdateOrderStatus)
				authorized.GET("/diagnostics", adminHandler.Diagnostics)
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
