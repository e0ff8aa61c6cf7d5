package controllers

import (
	"strconv"

	"ledger-app/controllers/helpers"
	"ledger-app/middleware"
	"ledger-app/repositories"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SyncController struct {
	DB *gorm.DB
}

func NewSyncController(DB *gorm.DB) *SyncController {
	return &SyncController{DB: DB}
}

// Pull returns rows changed since the client's cursor. The client persists
// the returned timestamp and presents it on its next call; the server keeps
// no per-client state.
func (c *SyncController) Pull(ctx *fiber.Ctx) error {
	lastPulledAt, err := strconv.ParseInt(ctx.Query("last_pulled_at", "0"), 10, 64)
	if err != nil || lastPulledAt < 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid last_pulled_at",
		})
	}
	activeOnly := ctx.QueryBool("active_only", false)

	sync := repositories.NewSyncRepository(c.DB)
	result, err := sync.Pull(lastPulledAt, activeOnly)
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(result)
}

type pushRequest struct {
	Changes      repositories.PushChanges `json:"changes"`
	LastPulledAt int64                    `json:"last_pulled_at"`
}

// Push ingests client-created records. The whole payload commits or none of
// it does; on failure the client retries the same payload wholesale.
func (c *SyncController) Push(ctx *fiber.Ctx) error {
	var req pushRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	sync := repositories.NewSyncRepository(c.DB)
	ack, err := sync.Push(req.Changes, req.LastPulledAt, middleware.Actor(ctx))
	if err != nil {
		return helpers.ErrorResponse(ctx, err)
	}

	return ctx.JSON(ack)
}
