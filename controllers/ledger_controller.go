package controllers

import (
	"strconv"

	"ledger-app/controllers/helpers"
	"ledger-app/middleware"
	"ledger-app/repositories"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LedgerController struct {
	DB *gorm.DB
}

func NewLedgerController(DB *gorm.DB) *LedgerController {
	return &LedgerController{DB: DB}
}

type mutationRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Qty       int    `json:"qty" validate:"required,min=1"`
	BatchID   *uint  `json:"batch_id"`
	SerialID  *uint  `json:"serial_id"`
	RefNo     string `json:"ref_no"`
}

func (c *LedgerController) Decrement(ctx *fiber.Ctx) error {
	var req mutationRequest
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

	ledger := repositories.NewLedgerRepository(c.DB)
	err := ledger.Decrement(repositories.Mutation{
		ProductID: req.ProductID,
		Qty:       req.Qty,
		BatchID:   req.BatchID,
		SerialID:  req.SerialID,
		RefNo:     req.RefNo,
		Actor:     middleware.Actor(ctx),
	})
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true, "message": "Stock decremented"})
}

func (c *LedgerController) Increment(ctx *fiber.Ctx) error {
	var req mutationRequest
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

	ledger := repositories.NewLedgerRepository(c.DB)
	err := ledger.Increment(repositories.Mutation{
		ProductID: req.ProductID,
		Qty:       req.Qty,
		BatchID:   req.BatchID,
		SerialID:  req.SerialID,
		RefNo:     req.RefNo,
		Actor:     middleware.Actor(ctx),
	})
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true, "message": "Stock incremented"})
}

func (c *LedgerController) Reconcile(ctx *fiber.Ctx) error {
	productID, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid product id",
		})
	}

	ledger := repositories.NewLedgerRepository(c.DB)
	result, err := ledger.Reconcile(uint(productID), middleware.Actor(ctx))
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true, "data": result})
}

func (c *LedgerController) GetStock(ctx *fiber.Ctx) error {
	productID, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid product id",
		})
	}

	ledger := repositories.NewLedgerRepository(c.DB)
	view, err := ledger.GetStock(uint(productID))
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true, "data": view})
}

func (c *LedgerController) GetMovements(ctx *fiber.Ctx) error {
	productID, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid product id",
		})
	}

	ledger := repositories.NewLedgerRepository(c.DB)
	movements, err := ledger.ListMovements(uint(productID), ctx.QueryInt("limit", 100))
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true, "data": fiber.Map{"movements": movements}})
}

func (c *LedgerController) ReserveSerial(ctx *fiber.Ctx) error {
	serialID, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid serial id",
		})
	}

	ledger := repositories.NewLedgerRepository(c.DB)
	if err := ledger.ReserveSerial(uint(serialID), middleware.Actor(ctx)); err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true, "message": "Serial reserved"})
}

func (c *LedgerController) ReleaseSerial(ctx *fiber.Ctx) error {
	serialID, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid serial id",
		})
	}

	ledger := repositories.NewLedgerRepository(c.DB)
	if err := ledger.ReleaseSerial(uint(serialID), middleware.Actor(ctx)); err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true, "message": "Serial released"})
}
