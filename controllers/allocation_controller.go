package controllers

import (
	"ledger-app/controllers/helpers"
	"ledger-app/middleware"
	"ledger-app/repositories"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AllocationController struct {
	DB *gorm.DB
}

func NewAllocationController(DB *gorm.DB) *AllocationController {
	return &AllocationController{DB: DB}
}

func (c *AllocationController) Allocate(ctx *fiber.Ctx) error {
	var req repositories.AllocationInput
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	req.Actor = middleware.Actor(ctx)

	allocator := repositories.NewAllocationRepository(c.DB)
	batch, err := allocator.Allocate(req)
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": fiber.Map{"batch": batch}})
}
