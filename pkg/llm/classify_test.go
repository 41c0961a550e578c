package llm

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want ErrorKind
	}{
		{name: "invalid key", msg: "googleapi: API key not valid. Please pass a valid API key.", want: ErrKindNoApiKey},
		{name: "missing key env", msg: "API_KEY_INVALID", want: ErrKindNoApiKey},
		{name: "quota text", msg: "quota exceeded for metric", want: ErrKindQuotaExceeded},
		{name: "http 429", msg: "googleapi: Error 429: rate limited", want: ErrKindQuotaExceeded},
		{name: "resource exhausted", msg: "rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED", want: ErrKindQuotaExceeded},
		{name: "timeout", msg: "context deadline exceeded", want: ErrKindTransient},
		{name: "connection refused", msg: "dial tcp: connection refused", want: ErrKindTransient},
		{name: "service unavailable", msg: "googleapi: Error 503: overloaded", want: ErrKindTransient},
		{name: "anything else", msg: "something odd happened", want: ErrKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.msg); got != tt.want {
				t.Errorf("ClassifyError(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestIsRotatable(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want bool
	}{
		{name: "quota rotates", msg: "429 too many requests", want: true},
		{name: "bad key rotates", msg: "API key not valid", want: true},
		{name: "timeout does not", msg: "timeout waiting for response", want: false},
		{name: "unknown does not", msg: "model refused", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRotatable(tt.msg); got != tt.want {
				t.Errorf("IsRotatable(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil) != nil {
		t.Error("nil error must wrap to nil")
	}

	ge := &GatewayError{Kind: ErrKindTransient, Message: "already wrapped"}
	if got := WrapError(ge); got != ge {
		t.Error("GatewayError must pass through unchanged")
	}

	got := WrapError(errors.New("quota exceeded"))
	if got.Kind != ErrKindQuotaExceeded {
		t.Errorf("Kind = %v, want %v", got.Kind, ErrKindQuotaExceeded)
	}
	if got.Message == "quota exceeded" {
		t.Error("quota errors should be rewritten to a user-facing message")
	}

	got = WrapError(errors.New(""))
	if got.Kind != ErrKindUnknown || got.Message == "" {
		t.Errorf("empty error should get a fallback message, got %+v", got)
	}
}
