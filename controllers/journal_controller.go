package controllers

import (
	"strconv"

	"ledger-app/controllers/helpers"
	"ledger-app/middleware"
	"ledger-app/models"
	"ledger-app/repositories"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type JournalController struct {
	DB *gorm.DB
}

func NewJournalController(DB *gorm.DB) *JournalController {
	return &JournalController{DB: DB}
}

type adjustmentRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Delta     int    `json:"delta" validate:"required"`
	Category  string `json:"category" validate:"required"`
	Reason    string `json:"reason"`
	BatchID   *uint  `json:"batch_id"`
	SerialID  *uint  `json:"serial_id"`
}

func (c *JournalController) RecordAdjustment(ctx *fiber.Ctx) error {
	var req adjustmentRequest
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
	if !models.ValidAdjustCategory(req.Category) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Unknown adjustment category",
		})
	}

	journal := repositories.NewJournalRepository(c.DB)
	entry, err := journal.RecordAdjustment(repositories.AdjustmentInput{
		ProductID: req.ProductID,
		Delta:     req.Delta,
		Category:  req.Category,
		Reason:    req.Reason,
		BatchID:   req.BatchID,
		SerialID:  req.SerialID,
		Actor:     middleware.Actor(ctx),
	})
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": entry})
}

func (c *JournalController) ListByProduct(ctx *fiber.Ctx) error {
	productID, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid product id",
		})
	}

	journal := repositories.NewJournalRepository(c.DB)
	entries, err := journal.ListByProduct(uint(productID), ctx.QueryInt("limit", 100))
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true, "data": fiber.Map{"adjustments": entries}})
}
