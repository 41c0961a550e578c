package unitofwork

import (
	"context"

	"arivu-ai-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	TierRepository() contract.TierRepository
	PaymentRepository() contract.PaymentRepository
}
