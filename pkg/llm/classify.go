package llm

import "strings"

// ErrorKind buckets provider failures into the categories the orchestrator
// cares about. Classification is substring matching against the provider's
// error text; keeping it behind ClassifyError makes the fragile part a
// single swappable unit.
type ErrorKind string

const (
	ErrKindNoApiKey      ErrorKind = "no_api_key"
	ErrKindQuotaExceeded ErrorKind = "quota_exceeded"
	ErrKindTransient     ErrorKind = "transient"
	ErrKindUnknown       ErrorKind = "unknown"
)

// GatewayError is the classified form of a provider failure. Message is
// human-readable and safe to render as a chat reply.
type GatewayError struct {
	Kind    ErrorKind
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// ClassifyError maps a raw provider error message to an ErrorKind.
func ClassifyError(msg string) ErrorKind {
	switch {
	case strings.Contains(msg, "API_KEY") || strings.Contains(msg, "API key not valid"):
		return ErrKindNoApiKey
	case strings.Contains(msg, "quota") || strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return ErrKindQuotaExceeded
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "connection refused") || strings.Contains(msg, "503"):
		return ErrKindTransient
	default:
		return ErrKindUnknown
	}
}

// IsRotatable reports whether the error justifies advancing the credential
// pool and retrying once (quota, rate limit, or invalid key).
func IsRotatable(msg string) bool {
	kind := ClassifyError(msg)
	return kind == ErrKindQuotaExceeded || kind == ErrKindNoApiKey
}

// WrapError converts a raw provider error into a GatewayError with a
// message suitable for rendering in the conversation.
func WrapError(err error) *GatewayError {
	if err == nil {
		return nil
	}
	if ge, ok := err.(*GatewayError); ok {
		return ge
	}

	msg := err.Error()
	switch ClassifyError(msg) {
	case ErrKindNoApiKey:
		return &GatewayError{Kind: ErrKindNoApiKey, Message: "API key not configured. Please set GEMINI_API_KEY."}
	case ErrKindQuotaExceeded:
		return &GatewayError{Kind: ErrKindQuotaExceeded, Message: "API quota exceeded. Please try again later."}
	case ErrKindTransient:
		return &GatewayError{Kind: ErrKindTransient, Message: msg}
	default:
		if msg == "" {
			msg = "Sorry, I encountered an error. Please try again."
		}
		return &GatewayError{Kind: ErrKindUnknown, Message: msg}
	}
}
