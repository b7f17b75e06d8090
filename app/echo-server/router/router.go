package router

import (
	"justEatMore/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	users := api.Group("/users")

	users.POST("/login", handler.Login)
	users.GET("/me", handler.Me, authRequired)
	users.POST("/register", handler.Register, authRequired, adminOnly)
}

func SetupCatalogRoutes(api *echo.Group, handler *rest.CatalogHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	bundleTypes := api.Group("/bundle-types")

	bundleTypes.GET("", handler.ListBundleTypes)
	bundleTypes.GET("/:id", handler.GetBundleType)
	bundleTypes.POST("", handler.CreateBundleType, authRequired, adminOnly)
	bundleTypes.PUT("/:id", handler.UpdateBundleType, authRequired, adminOnly)
	bundleTypes.DELETE("/:id", handler.DeleteBundleType, authRequired, adminOnly)
}

func SetBundleRoutes(api *echo.Group, handler *rest.BundleHandler) {
	bundles := api.Group("/bundles")
	bundles.POST("/quote", handler.Quote)
}

func SetupInventoryRoutes(api *echo.Group, handler *rest.InventoryHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	items := api.Group("/items", authRequired)

	items.GET("", handler.ListItems)
	items.GET("/low-stock", handler.LowStock)
	items.GET("/:id", handler.GetItem)
	items.POST("", handler.CreateItem, adminOnly)
	items.PUT("/:id", handler.UpdateItem, adminOnly)
	items.DELETE("/:id", handler.DeleteItem, adminOnly)
	items.POST("/:id/adjust", handler.AdjustStock, adminOnly)
}

// SetOrdersRoutes leaves order placement and lookup by reference public so
// customers can order without an account.
func SetOrdersRoutes(api *echo.Group, handler *rest.OrdersHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	orders := api.Group("/orders")
	orders.POST("", handler.CreateOrder)
	orders.GET("/ref/:reference", handler.GetOrderByReference)

	orders.GET("", handler.ListOrders, authRequired)
	orders.GET("/:id", handler.GetOrder, authRequired)

	orders.POST("/:id/approve", handler.Approve, authRequired, adminOnly)
	orders.POST("/:id/payment-uploaded", handler.MarkPaymentUploaded, authRequired, adminOnly)
	orders.POST("/:id/verify", handler.VerifyPayment, authRequired, adminOnly)
	orders.POST("/:id/process", handler.StartProcessing, authRequired, adminOnly)
	orders.POST("/:id/complete", handler.Complete, authRequired, adminOnly)
	orders.POST("/:id/cancel", handler.Cancel, authRequired, adminOnly)
	orders.POST("/:id/commit-stock", handler.CommitStock, authRequired, adminOnly)
	orders.POST("/:id/rerun", handler.RerunAllocation, authRequired, adminOnly)
}

func SetWebhookHandler(api *echo.Group, webhookHandler *rest.WebhookController) {
	webhook := api.Group("/webhook")
	webhook.POST("/payments", webhookHandler.HandleWebhook)
}

func SetupAdminRoutes(api *echo.Group, handler *rest.DashboardHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin", authRequired, adminOnly)
	admin.GET("/dashboard", handler.Dashboard)
}
