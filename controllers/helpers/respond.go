package helpers

import (
	"errors"

	"ledger-app/repositories"
	"ledger-app/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorResponse maps a repository error onto an HTTP response. Domain errors
// are surfaced verbatim so the caller can act on them; unexpected storage
// failures are logged and reported generically.
func ErrorResponse(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repositories.ErrInsufficientStock),
		errors.Is(err, repositories.ErrInvalidSerialState),
		errors.Is(err, repositories.ErrDuplicateSerial),
		errors.Is(err, repositories.ErrSerialCountMismatch),
		errors.Is(err, repositories.ErrNamespaceCollision),
		errors.Is(err, repositories.ErrSyncConflict):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})

	case errors.Is(err, repositories.ErrCodeNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})

	case errors.Is(err, gorm.ErrInvalidDB),
		errors.Is(err, gorm.ErrInvalidTransaction),
		errors.Is(err, repositories.ErrStorageUnavailable),
		errors.Is(err, repositories.ErrTransactionAborted):
		utils.Log.Error().Err(err).Msg("storage failure")
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"message": repositories.ErrStorageUnavailable.Error(),
		})

	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
}
