package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"arivu-ai-be/internal/dto"
	"arivu-ai-be/pkg/quota"
)

// ErrorHandlerMiddleware converts errors escaping the handler chain
// into the standard envelopes. Quota denials become 429 with usage
// details so the client can raise the pricing modal.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var denied *quota.DeniedError
		if errors.As(err, &denied) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(dto.LimitExceededResponse{
				Success:   false,
				Code:      fiber.StatusTooManyRequests,
				Message:   denied.Reason,
				ErrorType: "limit_exceeded",
				Data: dto.LimitExceededData{
					Limit:            denied.Limit,
					Used:             denied.Used,
					Reason:           denied.Reason,
					ShowModalPricing: true,
				},
			})
		}

		var invalid *ValidationError
		if errors.As(err, &invalid) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(400, invalid.Message))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(500, err.Error()))
	}
}
