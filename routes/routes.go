package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/handlers"
	customMiddleware "github.com/bazaarbd/bazaar-backend-go/middleware"
	"github.com/bazaarbd/bazaar-backend-go/metrics"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Pinger reports whether the backing store is reachable. A nil Pinger
// makes /health always report ok.
type Pinger func(ctx context.Context) error

func SetupRoutes(e *echo.Echo, h *handlers.Handler, tokens customMiddleware.TokenValidator, ping Pinger) {
	e.GET("/health", health(ping))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api/v1")
	auth := customMiddleware.AuthMiddleware(tokens)

	// Public routes
	api.POST("/auth/register", h.RegisterUser)
	api.POST("/auth/login", h.LoginUser)
	api.GET("/products", h.GetProducts)
	api.GET("/products/:id", h.GetProduct)

	// User routes
	api.GET("/users/me", h.GetUserProfile, auth)
	api.PUT("/users/me", h.UpdateUserProfile, auth)

	// Cart routes
	cart := api.Group("/cart", auth)
	cart.GET("", h.GetCart)
	cart.POST("/items", h.AddToCart)
	cart.PUT("/items/:itemId", h.UpdateCartItemQuantity)
	cart.DELETE("/items/:itemId", h.RemoveFromCart)
	cart.DELETE("", h.ClearCart)

	// Order routes
	orders := api.Group("/orders", auth)
	orders.POST("", h.CreateOrder)
	orders.GET("", h.GetMyOrders)
	orders.GET("/user/:orderId", h.GetOrder)
	orders.PUT("/:orderId/cancel", h.CancelOrder)
	orders.POST("/:orderId/payment-proof", h.SubmitPaymentProof)
	orders.GET("/:orderId/payment-proof", h.GetPaymentProof)

	// Admin order routes
	admin := orders.Group("/admin", customMiddleware.AdminOnly)
	admin.GET("/all", h.ListOrders)
	admin.GET("/filtered", h.ListOrders)
	admin.GET("/stats", h.GetOrderStats)
	admin.GET("/export", h.ExportOrders)
	admin.POST("/bulk-status", h.BulkUpdateOrderStatus)
	admin.GET("/delivery-costs", h.GetDeliveryCosts)
	admin.POST("/delivery-costs", h.UpdateDeliveryCosts)
	admin.GET("/:orderId", h.GetOrder)
	admin.PUT("/:orderId/status", h.UpdateOrderStatus)
	admin.PUT("/:orderId/cancel", h.CancelOrder)
	admin.POST("/:orderId/note", h.AddAdminNote)
	admin.PUT("/:orderId/verify-payment", h.VerifyPaymentProof)

	// Admin catalog and settings
	api.POST("/products", h.CreateProduct, auth, customMiddleware.AdminOnly)
	settings := api.Group("/admin", auth, customMiddleware.AdminOnly)
	settings.GET("/delivery-costs", h.GetDeliveryCosts)
	settings.POST("/delivery-costs", h.UpdateDeliveryCosts)
	settings.PUT("/delivery-costs", h.UpdateDeliveryCosts)

	log.WithField("routes", len(e.Routes())).Debug("routes registered")
}

func health(ping Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.WithError(err).Warn("health check failed")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
