package mapper

import (
	"arivu-ai-be/internal/entity"
	"arivu-ai-be/internal/model"

	"arivu-ai-be/pkg/quota"
)

type TierMapper struct{}

func NewTierMapper() *TierMapper {
	return &TierMapper{}
}

func (m *TierMapper) ToEntity(t *model.UserTier) *entity.UserTier {
	if t == nil {
		return nil
	}
	return &entity.UserTier{
		Id:              t.Id,
		UserId:          t.UserId,
		Kind:            quota.TierKind(t.Kind),
		FreeTrialExpiry: t.FreeTrialExpiry,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (m *TierMapper) ToModel(t *entity.UserTier) *model.UserTier {
	if t == nil {
		return nil
	}
	return &model.UserTier{
		Id:              t.Id,
		UserId:          t.UserId,
		Kind:            string(t.Kind),
		FreeTrialExpiry: t.FreeTrialExpiry,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
