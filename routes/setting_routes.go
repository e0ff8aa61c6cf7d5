package routes

import (
	"ledger-app/config"
	"ledger-app/controllers"
	"ledger-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSettingRoutes(app *fiber.App, db *gorm.DB) {
	settingController := controllers.NewSettingController(db)
	api := app.Group(config.MAIN_ROUTES+"/settings", middleware.AuthMiddleware)

	api.Get("/", settingController.GetAll)
	api.Put("/", settingController.Update)
}
