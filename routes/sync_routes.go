package routes

import (
	"ledger-app/config"
	"ledger-app/controllers"
	"ledger-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSyncRoutes(app *fiber.App, db *gorm.DB) {
	syncController := controllers.NewSyncController(db)
	api := app.Group(config.MAIN_ROUTES+"/sync", middleware.AuthMiddleware)

	api.Get("/pull", syncController.Pull)
	api.Post("/push", syncController.Push)
}
