package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionEvent is the payload pushed to connected clients when a
// session changes: a turn is persisted, the tier flips, or a session
// is deleted elsewhere.
type SessionEvent struct {
	Type      string     `json:"type"` // "turn_persisted" | "tier_changed" | "session_deleted"
	SessionId *uuid.UUID `json:"session_id,omitempty"`
	TurnId    *uuid.UUID `json:"turn_id,omitempty"`
	Role      string     `json:"role,omitempty"`
	IsError   bool       `json:"is_error,omitempty"`
	Message   string     `json:"message,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
