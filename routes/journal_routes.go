package routes

import (
	"ledger-app/config"
	"ledger-app/controllers"
	"ledger-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupJournalRoutes(app *fiber.App, db *gorm.DB) {
	journalController := controllers.NewJournalController(db)
	api := app.Group(config.MAIN_ROUTES+"/adjustments", middleware.AuthMiddleware)

	api.Post("/", journalController.RecordAdjustment)
	api.Get("/product/:id", journalController.ListByProduct)
}
