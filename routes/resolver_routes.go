package routes

import (
	"ledger-app/config"
	"ledger-app/controllers"
	"ledger-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupResolverRoutes(app *fiber.App, db *gorm.DB) {
	resolverController := controllers.NewResolverController(db)
	api := app.Group(config.MAIN_ROUTES+"/codes", middleware.AuthMiddleware)

	api.Get("/resolve/:code", resolverController.Resolve)
}
