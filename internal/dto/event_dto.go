package dto

import (
	"github.com/google/uuid"
)

// PublishSessionEventMessage is the in-process bus payload consumed by
// the websocket fan-out worker.
type PublishSessionEventMessage struct {
	UserId    uuid.UUID  `json:"user_id"`
	Type      string     `json:"type"`
	SessionId *uuid.UUID `json:"session_id,omitempty"`
	TurnId    *uuid.UUID `json:"turn_id,omitempty"`
	Role      string     `json:"role,omitempty"`
	IsError   bool       `json:"is_error,omitempty"`
	Message   string     `json:"message,omitempty"`
}
