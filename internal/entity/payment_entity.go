package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentOrder is a single pro-upgrade checkout. Its Id doubles as the
// Midtrans order id so the webhook can find it again.
type PaymentOrder struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Amount    int64
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
