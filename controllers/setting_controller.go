package controllers

import (
	"ledger-app/controllers/helpers"
	"ledger-app/middleware"
	"ledger-app/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SettingController struct {
	DB *gorm.DB
}

func NewSettingController(DB *gorm.DB) *SettingController {
	return &SettingController{DB: DB}
}

func (c *SettingController) GetAll(ctx *fiber.Ctx) error {
	var settings []models.ShopSetting
	if err := c.DB.Order("key").Find(&settings).Error; err != nil {
		return helpers.ErrorResponse(ctx, err)
	}
	return ctx.JSON(fiber.Map{"success": true, "data": fiber.Map{"settings": settings}})
}

func (c *SettingController) Update(ctx *fiber.Ctx) error {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := ctx.BodyParser(&req); err != nil || req.Key == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	res := c.DB.Model(&models.ShopSetting{}).Where("key = ?", req.Key).
		Updates(map[string]interface{}{"value": req.Value, "updated_by": middleware.Actor(ctx)})
	if res.Error != nil {
		return helpers.ErrorResponse(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Setting not found",
		})
	}

	return ctx.JSON(fiber.Map{"success": true, "message": "Setting updated"})
}
