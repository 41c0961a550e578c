package entity

import (
	"time"

	"github.com/google/uuid"

	"arivu-ai-be/pkg/quota"
)

// UserTier is one user's usage-limit classification. A pro tier with an
// unexpired FreeTrialExpiry behaves as pro until the trial lapses. Tier
// changes never touch session or turn history.
type UserTier struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	Kind            quota.TierKind
	FreeTrialExpiry *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Quota converts the stored row into the gate's value type.
func (t *UserTier) Quota() quota.Tier {
	if t == nil {
		return quota.Tier{Kind: quota.TierFree}
	}
	return quota.Tier{Kind: t.Kind, FreeTrialExpiry: t.FreeTrialExpiry}
}
