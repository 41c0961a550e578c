package implementation

import (
	"context"
	"errors"

	"arivu-ai-be/internal/entity"
	"arivu-ai-be/internal/mapper"
	"arivu-ai-be/internal/model"
	"arivu-ai-be/internal/repository/contract"
	"arivu-ai-be/internal/repository/specification"

	"gorm.io/gorm"
)

type TierRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TierMapper
}

func NewTierRepository(db *gorm.DB) contract.TierRepository {
	return &TierRepositoryImpl{
		db:     db,
		mapper: mapper.NewTierMapper(),
	}
}

func (r *TierRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TierRepositoryImpl) Create(ctx context.Context, tier *entity.UserTier) error {
	m := r.mapper.ToModel(tier)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*tier = *r.mapper.ToEntity(m)
	return nil
}

func (r *TierRepositoryImpl) Update(ctx context.Context, tier *entity.UserTier) error {
	m := r.mapper.ToModel(tier)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*tier = *r.mapper.ToEntity(m)
	return nil
}

func (r *TierRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserTier, error) {
	var m model.UserTier
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
