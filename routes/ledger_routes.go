package routes

import (
	"ledger-app/config"
	"ledger-app/controllers"
	"ledger-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupLedgerRoutes(app *fiber.App, db *gorm.DB) {
	ledgerController := controllers.NewLedgerController(db)
	api := app.Group(config.MAIN_ROUTES+"/ledger", middleware.AuthMiddleware)

	api.Post("/decrement", ledgerController.Decrement)
	api.Post("/increment", ledgerController.Increment)
	api.Post("/reconcile/:id", ledgerController.Reconcile)
	api.Get("/stock/:id", ledgerController.GetStock)
	api.Get("/movements/:id", ledgerController.GetMovements)
	api.Post("/serials/:id/reserve", ledgerController.ReserveSerial)
	api.Post("/serials/:id/release", ledgerController.ReleaseSerial)
}
