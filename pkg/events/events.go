package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_LOGIN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used by all publishers.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes.
const (
	TypeUserLogin     = "USER_LOGIN"
	TypeUserSignup    = "USER_SIGNUP"
	TypeTierUpgraded  = "TIER_UPGRADED"
	TypeTierReverted  = "TIER_REVERTED"
	TypeTurnPersisted = "TURN_PERSISTED"
)

// NewUserLoginEvent records a successful sign-in.
func NewUserLoginEvent(userId uuid.UUID, device string) BaseEvent {
	now := time.Now()
	return BaseEvent{
		Type: TypeUserLogin,
		Data: map[string]interface{}{
			"user_id": userId,
			"device":  device,
			"time":    now.Format(time.RFC822),
		},
		OccurredAt: now,
	}
}

// NewTierUpgradedEvent records a tier change to pro (paid or trial).
func NewTierUpgradedEvent(userId uuid.UUID, source string, trialExpiry *time.Time) BaseEvent {
	now := time.Now()
	data := map[string]interface{}{
		"user_id": userId,
		"source":  source, // "payment" | "trial"
	}
	if trialExpiry != nil {
		data["trial_expiry"] = trialExpiry
	}
	return BaseEvent{Type: TypeTierUpgraded, Data: data, OccurredAt: now}
}

// NewTurnPersistedEvent records a turn appended to a session. It is the
// payload the websocket hub fans out so open clients re-render.
func NewTurnPersistedEvent(userId, sessionId, turnId uuid.UUID, role string, isError bool) BaseEvent {
	now := time.Now()
	return BaseEvent{
		Type: TypeTurnPersisted,
		Data: map[string]interface{}{
			"user_id":    userId,
			"session_id": sessionId,
			"turn_id":    turnId,
			"role":       role,
			"is_error":   isError,
		},
		OccurredAt: now,
	}
}
