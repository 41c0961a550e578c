package contract

import (
	"context"

	"arivu-ai-be/internal/entity"
	"arivu-ai-be/internal/repository/specification"
)

type TierRepository interface {
	Create(ctx context.Context, tier *entity.UserTier) error
	Update(ctx context.Context, tier *entity.UserTier) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserTier, error)
}
