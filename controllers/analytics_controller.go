package controllers

import (
	"fmt"
	"strconv"

	"ledger-app/cache"
	"ledger-app/controllers/helpers"
	"ledger-app/repositories"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewAnalyticsController(DB *gorm.DB, c *cache.Cache) *AnalyticsController {
	return &AnalyticsController{DB: DB, Cache: c}
}

func (c *AnalyticsController) PriceTrend(ctx *fiber.Ctx) error {
	productID, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid product id",
		})
	}
	months := ctx.QueryInt("months", 12)

	cacheKey := fmt.Sprintf("analytics:price-trend:%d:%d", productID, months)
	var points []repositories.PricePoint
	if c.Cache.GetJSON(ctx.Context(), cacheKey, &points) {
		return ctx.JSON(fiber.Map{"success": true, "data": points, "cached": true})
	}

	analytics := repositories.NewAnalyticsRepository(c.DB)
	points, err = analytics.PriceTrend(uint(productID), months)
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	c.Cache.SetJSON(ctx.Context(), cacheKey, points)
	return ctx.JSON(fiber.Map{"success": true, "data": points})
}

func (c *AnalyticsController) StockAging(ctx *fiber.Ctx) error {
	var buckets []repositories.AgingBucket
	if c.Cache.GetJSON(ctx.Context(), "analytics:aging", &buckets) {
		return ctx.JSON(fiber.Map{"success": true, "data": buckets, "cached": true})
	}

	analytics := repositories.NewAnalyticsRepository(c.DB)
	buckets, err := analytics.StockAging()
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	c.Cache.SetJSON(ctx.Context(), "analytics:aging", buckets)
	return ctx.JSON(fiber.Map{"success": true, "data": buckets})
}

func (c *AnalyticsController) SalesVelocity(ctx *fiber.Ctx) error {
	days := ctx.QueryInt("days", 30)
	limit := ctx.QueryInt("limit", 20)

	cacheKey := fmt.Sprintf("analytics:velocity:%d:%d", days, limit)
	var rows []repositories.VelocityRow
	if c.Cache.GetJSON(ctx.Context(), cacheKey, &rows) {
		return ctx.JSON(fiber.Map{"success": true, "data": rows, "cached": true})
	}

	analytics := repositories.NewAnalyticsRepository(c.DB)
	rows, err := analytics.SalesVelocity(days, limit)
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	c.Cache.SetJSON(ctx.Context(), cacheKey, rows)
	return ctx.JSON(fiber.Map{"success": true, "data": rows})
}

func (c *AnalyticsController) SupplierPerformance(ctx *fiber.Ctx) error {
	days := ctx.QueryInt("days", 90)

	cacheKey := fmt.Sprintf("analytics:suppliers:%d", days)
	var stats []repositories.SupplierStat
	if c.Cache.GetJSON(ctx.Context(), cacheKey, &stats) {
		return ctx.JSON(fiber.Map{"success": true, "data": stats, "cached": true})
	}

	analytics := repositories.NewAnalyticsRepository(c.DB)
	stats, err := analytics.SupplierPerformance(days)
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	c.Cache.SetJSON(ctx.Context(), cacheKey, stats)
	return ctx.JSON(fiber.Map{"success": true, "data": stats})
}
