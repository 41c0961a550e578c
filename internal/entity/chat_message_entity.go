package entity

import (
	"time"

	"github.com/google/uuid"
)

// TurnAttachment records a file the user attached to a turn. Only the
// name and mime type are kept; the binary itself is forwarded to the
// provider once and never stored.
type TurnAttachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

// ChatMessage is one turn within a session. Turns are immutable once
// created: never edited, only appended, and removed solely by a
// whole-session clear or delete.
type ChatMessage struct {
	Id            uuid.UUID
	Chat          string
	Role          string
	ChatSessionId uuid.UUID
	Attachments   []TurnAttachment
	IsError       bool
	CreatedAt     time.Time
}
