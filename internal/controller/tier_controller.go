package controller

import (
	"arivu-ai-be/internal/pkg/serverutils"
	"arivu-ai-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITierController interface {
	RegisterRoutes(r fiber.Router)
	GetStatus(ctx *fiber.Ctx) error
	StartFreeTrial(ctx *fiber.Ctx) error
	Downgrade(ctx *fiber.Ctx) error
	GetUsageStatus(ctx *fiber.Ctx) error
}

type tierController struct {
	service service.ITierService
}

func NewTierController(service service.ITierService) ITierController {
	return &tierController{service: service}
}

func (c *tierController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/tier")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/status", c.GetStatus)
	h.Post("/trial", c.StartFreeTrial)
	h.Post("/downgrade", c.Downgrade)
	h.Get("/usage", c.GetUsageStatus)
}

func (c *tierController) GetStatus(ctx *fiber.Ctx) error {
	userId, err := userIdFromLocals(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Unauthorized"))
	}

	res, err := c.service.GetStatus(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Tier status", res))
}

func (c *tierController) StartFreeTrial(ctx *fiber.Ctx) error {
	userId, err := userIdFromLocals(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Unauthorized"))
	}

	res, err := c.service.StartFreeTrial(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Free trial started", res))
}

func (c *tierController) Downgrade(ctx *fiber.Ctx) error {
	userId, err := userIdFromLocals(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Unauthorized"))
	}

	if err := c.service.Downgrade(ctx.Context(), userId); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Downgraded to free tier", nil))
}

func (c *tierController) GetUsageStatus(ctx *fiber.Ctx) error {
	userId, err := userIdFromLocals(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Unauthorized"))
	}

	res, err := c.service.GetUsageStatus(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Usage status", res))
}
