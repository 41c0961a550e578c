package llm

import (
	"context"
)

// Role names used in provider-agnostic messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleModel     = "model"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "model", "system"
	Content string
}

// Attachment is a binary part sent alongside a prompt (e.g. an image).
// Providers skip attachments whose mime type they cannot inline.
type Attachment struct {
	Name     string
	MimeType string
	Data     []byte
}

// IsImage reports whether the attachment can be sent inline to the provider.
func (a Attachment) IsImage() bool {
	return len(a.MimeType) > 6 && a.MimeType[:6] == "image/"
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatMultimodal sends a prompt plus inline attachments on top of the
	// history. The prompt becomes the final user message; only image
	// attachments are encoded into the provider's inline representation.
	ChatMultimodal(ctx context.Context, history []Message, prompt string, attachments []Attachment, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
