package quota

import (
	"fmt"
	"time"
)

// TierKind classifies a user's usage limits.
type TierKind string

const (
	TierFree TierKind = "free"
	TierPro  TierKind = "pro"
)

// Free tier limits.
const (
	FreeMaxTurnsPerSession = 5
	FreeMaxSessions        = 5
)

// Tier is the usage-limit classification for one user. A pro tier with an
// unexpired FreeTrialExpiry behaves as pro; once expired it reverts to free.
type Tier struct {
	Kind            TierKind
	FreeTrialExpiry *time.Time
}

// Effective resolves the tier kind at the given instant.
func (t Tier) Effective(now time.Time) TierKind {
	if t.Kind != TierPro {
		return TierFree
	}
	if t.FreeTrialExpiry != nil && now.After(*t.FreeTrialExpiry) {
		return TierFree
	}
	return TierPro
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool
	Reason  string
	Limit   int
	Used    int
}

// DeniedError carries a quota denial through the service layer so the HTTP
// boundary can render it as a 429 with usage details.
type DeniedError struct {
	Reason string
	Limit  int
	Used   int
}

func (e *DeniedError) Error() string {
	return e.Reason
}

// Err converts a denying decision into a *DeniedError, nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason, Limit: d.Limit, Used: d.Used}
}

// CanSend decides whether one more message may enter a session that already
// holds turnCount turns (user and assistant combined). The gate is a pure
// predicate: it is consulted immediately before admission and mutates
// nothing.
func CanSend(t Tier, now time.Time, turnCount int) Decision {
	if t.Effective(now) == TierPro {
		return Decision{Allowed: true}
	}
	if turnCount >= FreeMaxTurnsPerSession {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("message limit reached (%d messages per chat on the free plan)", FreeMaxTurnsPerSession),
			Limit:   FreeMaxTurnsPerSession,
			Used:    turnCount,
		}
	}
	return Decision{Allowed: true}
}

// CanCreateSession decides whether a user already holding sessionCount
// sessions may create another.
func CanCreateSession(t Tier, now time.Time, sessionCount int) Decision {
	if t.Effective(now) == TierPro {
		return Decision{Allowed: true}
	}
	if sessionCount >= FreeMaxSessions {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("chat limit reached (%d chats on the free plan)", FreeMaxSessions),
			Limit:   FreeMaxSessions,
			Used:    sessionCount,
		}
	}
	return Decision{Allowed: true}
}
