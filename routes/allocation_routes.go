package routes

import (
	"ledger-app/config"
	"ledger-app/controllers"
	"ledger-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAllocationRoutes(app *fiber.App, db *gorm.DB) {
	allocationController := controllers.NewAllocationController(db)
	api := app.Group(config.MAIN_ROUTES+"/allocations", middleware.AuthMiddleware)

	api.Post("/", allocationController.Allocate)
}
