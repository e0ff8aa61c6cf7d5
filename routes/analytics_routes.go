package routes

import (
	"ledger-app/cache"
	"ledger-app/config"
	"ledger-app/controllers"
	"ledger-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAnalyticsRoutes(app *fiber.App, db *gorm.DB, c *cache.Cache) {
	analyticsController := controllers.NewAnalyticsController(db, c)
	api := app.Group(config.MAIN_ROUTES+"/analytics", middleware.AuthMiddleware)

	api.Get("/price-trend/:id", analyticsController.PriceTrend)
	api.Get("/aging", analyticsController.StockAging)
	api.Get("/velocity", analyticsController.SalesVelocity)
	api.Get("/suppliers", analyticsController.SupplierPerformance)
}
