package contract

import (
	"context"

	"arivu-ai-be/internal/entity"
	"arivu-ai-be/internal/repository/specification"
)

type PaymentRepository interface {
	Create(ctx context.Context, order *entity.PaymentOrder) error
	Update(ctx context.Context, order *entity.PaymentOrder) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaymentOrder, error)
}
