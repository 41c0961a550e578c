package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	IsActive  bool       `json:"is_active"`
}

type AttachmentDTO struct {
	Name     string `json:"name" validate:"required"`
	MimeType string `json:"mime_type" validate:"required"`
	Data     string `json:"data,omitempty"` // base64, request-only
}

type GetChatHistoryResponse struct {
	Id          uuid.UUID       `json:"id"`
	Role        string          `json:"role"`
	Chat        string          `json:"chat"`
	Attachments []AttachmentDTO `json:"attachments,omitempty"`
	IsError     bool            `json:"is_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID       `json:"chat_session_id" validate:"required"`
	Chat          string          `json:"chat" validate:"required_without=Attachments"`
	ToolMode      string          `json:"tool_mode,omitempty"` // "web-search" | "deep-analysis" | "study-mode"
	Attachments   []AttachmentDTO `json:"attachments,omitempty" validate:"max=5,dive"`
}

type SendChatResponseChat struct {
	Id          uuid.UUID       `json:"id"`
	Chat        string          `json:"chat"`
	Role        string          `json:"role"`
	Attachments []AttachmentDTO `json:"attachments,omitempty"`
	IsError     bool            `json:"is_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID             `json:"chat_session_id"`
	ChatSessionTitle string                `json:"title"`
	Sent             *SendChatResponseChat `json:"sent"`
	Reply            *SendChatResponseChat `json:"reply"`
	MessageUsage     int                   `json:"message_usage"`
}

type SelectSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

type DeleteSessionResponse struct {
	ActiveSessionId *uuid.UUID `json:"active_session_id"`
}

type SetToolModeRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	ToolMode      string    `json:"tool_mode" validate:"required"`
}

// --- Limit Exceeded Error Types ---

// LimitExceededData is the data payload for 429 responses
type LimitExceededData struct {
	Limit            int    `json:"limit"`
	Used             int    `json:"used"`
	Reason           string `json:"reason"` // "turns" | "sessions"
	ShowModalPricing bool   `json:"show_modal_pricing"`
}

// LimitExceededResponse is the full 429 response structure
type LimitExceededResponse struct {
	Success   bool              `json:"success"`
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	ErrorType string            `json:"error_type"`
	Data      LimitExceededData `json:"data"`
}
