package main

import (
	"ledger-app/cache"
	"ledger-app/config"
	"ledger-app/controllers/idgen"
	"ledger-app/database"
	"ledger-app/migration"
	"ledger-app/repositories"
	"ledger-app/routes"
	seed "ledger-app/seeder"
	"ledger-app/utils"

	"github.com/gofiber/fiber/v2"
)

func main() {
	config.LoadConfig()
	utils.SetLogLevel(config.LogLevel)

	db, err := database.Open()
	if err != nil {
		utils.Log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := migration.Migrate(db); err != nil {
		utils.Log.Fatal().Err(err).Msg("failed to auto migrate")
	}
	if err := database.SeedSettings(db); err != nil {
		utils.Log.Fatal().Err(err).Msg("failed to seed settings")
	}

	if config.SeedDemo {
		seed.SeedDemoCatalog(db)
	}

	idgen.Init()

	// Code namespaces must be disjoint before the resolver is trusted.
	resolver := repositories.NewResolverRepository(db)
	if err := resolver.CheckNamespaces(); err != nil {
		utils.Log.Fatal().Err(err).Msg("code namespace check failed")
	}

	analyticsCache, err := cache.New()
	if err != nil {
		utils.Log.Warn().Err(err).Msg("analytics cache disabled")
	}

	app := fiber.New()
	config.SetupCORS(app)

	routes.SetupLedgerRoutes(app, db)
	routes.SetupJournalRoutes(app, db)
	routes.SetupResolverRoutes(app, db)
	routes.SetupAllocationRoutes(app, db)
	routes.SetupSyncRoutes(app, db)
	routes.SetupAnalyticsRoutes(app, db, analyticsCache)
	routes.SetupSettingRoutes(app, db)

	utils.Log.Info().Str("port", config.APP_PORT).Msg("ledger server listening")
	if err := app.Listen(":" + config.APP_PORT); err != nil {
		utils.Log.Fatal().Err(err).Msg("server stopped")
	}
}
