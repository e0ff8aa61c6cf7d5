package controllers

import (
	"ledger-app/controllers/helpers"
	"ledger-app/repositories"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ResolverController struct {
	DB *gorm.DB
}

func NewResolverController(DB *gorm.DB) *ResolverController {
	return &ResolverController{DB: DB}
}

func (c *ResolverController) Resolve(ctx *fiber.Ctx) error {
	code := ctx.Params("code")

	resolver := repositories.NewResolverRepository(c.DB)
	result, err := resolver.Resolve(code)
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true, "data": result})
}
