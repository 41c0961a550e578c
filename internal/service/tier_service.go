package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arivu-ai-be/internal/dto"
	"arivu-ai-be/internal/repository/specification"
	"arivu-ai-be/internal/repository/unitofwork"
	"arivu-ai-be/pkg/events"
	pktNats "arivu-ai-be/pkg/nats"
	"arivu-ai-be/pkg/quota"

	"github.com/google/uuid"
)

type ITierService interface {
	GetStatus(ctx context.Context, userId uuid.UUID) (*dto.TierStatusResponse, error)
	StartFreeTrial(ctx context.Context, userId uuid.UUID) (*dto.TierStatusResponse, error)
	Upgrade(ctx context.Context, userId uuid.UUID, source string) error
	Downgrade(ctx context.Context, userId uuid.UUID) error
	GetUsageStatus(ctx context.Context, userId uuid.UUID) (*dto.UsageStatusResponse, error)
}

type tierService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
}

func NewTierService(uowFactory unitofwork.RepositoryFactory, eventPublisher *pktNats.Publisher) ITierService {
	return &tierService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
	}
}

func (s *tierService) GetStatus(ctx context.Context, userId uuid.UUID) (*dto.TierStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	tier, err := uow.TierRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}

	q := tier.Quota()
	return &dto.TierStatusResponse{
		Kind:            string(q.Kind),
		Effective:       string(q.Effective(time.Now())),
		FreeTrialExpiry: q.FreeTrialExpiry,
	}, nil
}

// StartFreeTrial grants one month of pro behavior. Only a plain free
// account qualifies; an active pro or a previous trial is rejected.
func (s *tierService) StartFreeTrial(ctx context.Context, userId uuid.UUID) (*dto.TierStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	tier, err := uow.TierRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, errors.New("tier not found")
	}
	if tier.Kind == quota.TierPro || tier.FreeTrialExpiry != nil {
		return nil, errors.New("free trial not available")
	}

	expiry := time.Now().AddDate(0, 1, 0)
	tier.Kind = quota.TierPro
	tier.FreeTrialExpiry = &expiry
	tier.UpdatedAt = time.Now()

	if err := uow.TierRepository().Update(ctx, tier); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.NewTierUpgradedEvent(userId, "trial", &expiry)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish TIER_UPGRADED event: %v\n", err)
		}
	}

	q := tier.Quota()
	return &dto.TierStatusResponse{
		Kind:            string(q.Kind),
		Effective:       string(q.Effective(time.Now())),
		FreeTrialExpiry: q.FreeTrialExpiry,
	}, nil
}

// Upgrade flips the account to paid pro. Trial expiry is cleared since a
// paid plan does not lapse.
func (s *tierService) Upgrade(ctx context.Context, userId uuid.UUID, source string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	tier, err := uow.TierRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}
	if tier == nil {
		return errors.New("tier not found")
	}

	tier.Kind = quota.TierPro
	tier.FreeTrialExpiry = nil
	tier.UpdatedAt = time.Now()

	if err := uow.TierRepository().Update(ctx, tier); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		evt := events.NewTierUpgradedEvent(userId, source, nil)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish TIER_UPGRADED event: %v\n", err)
		}
	}
	return nil
}

// Downgrade reverts to the free tier. History and the usage counter stay
// untouched; the limits simply apply again on the next send.
func (s *tierService) Downgrade(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	tier, err := uow.TierRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}
	if tier == nil {
		return errors.New("tier not found")
	}

	tier.Kind = quota.TierFree
	tier.FreeTrialExpiry = nil
	tier.UpdatedAt = time.Now()

	if err := uow.TierRepository().Update(ctx, tier); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type:       events.TypeTierReverted,
			Data:       map[string]interface{}{"user_id": userId},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish TIER_REVERTED event: %v\n", err)
		}
	}
	return nil
}

func (s *tierService) GetUsageStatus(ctx context.Context, userId uuid.UUID) (*dto.UsageStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	tier, err := uow.TierRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}

	sessionCount, err := uow.ChatSessionRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}

	q := tier.Quota()
	effective := q.Effective(time.Now())

	resp := &dto.UsageStatusResponse{
		Tier:         string(effective),
		TurnsUsed:    user.MessageUsage,
		SessionsUsed: int(sessionCount),
	}
	if effective == quota.TierFree {
		resp.TurnLimit = quota.FreeMaxTurnsPerSession
		resp.SessionLimit = quota.FreeMaxSessions
		resp.ShowModalPricing = user.MessageUsage >= quota.FreeMaxTurnsPerSession ||
			int(sessionCount) >= quota.FreeMaxSessions
	}
	return resp, nil
}
