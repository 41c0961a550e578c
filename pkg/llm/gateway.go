package llm

import (
	"context"
	"sync"

	"arivu-ai-be/pkg/llm/keypool"
)

// ProviderFactory builds a provider bound to a specific API key. The
// gateway calls it again after rotation so a fresh key takes effect.
type ProviderFactory func(apiKey string) LLMProvider

// Gateway is the single external network boundary of the conversation
// core. It owns the credential pool and drives rotation: one exchange with
// the current key, and on a quota/rate-limit/invalid-key failure exactly
// one retry with the next key, re-sending prompt and attachments unchanged.
type Gateway struct {
	pool        *keypool.Pool
	newProvider ProviderFactory

	// mu guards providers; handlers may run overlapping sends.
	mu        sync.Mutex
	providers map[string]LLMProvider
}

func NewGateway(pool *keypool.Pool, factory ProviderFactory) *Gateway {
	return &Gateway{
		pool:        pool,
		newProvider: factory,
		providers:   make(map[string]LLMProvider),
	}
}

// Pool exposes the credential pool (used by bootstrap for the startup
// fail-fast check and by tests to observe rotation).
func (g *Gateway) Pool() *keypool.Pool {
	return g.pool
}

func (g *Gateway) providerFor(key string) LLMProvider {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.providers[key]; ok {
		return p
	}
	p := g.newProvider(key)
	g.providers[key] = p
	return p
}

// Send performs the request/response exchange. The returned error, if any,
// is always a *GatewayError.
func (g *Gateway) Send(ctx context.Context, prompt string, history []Message, attachments []Attachment) (string, error) {
	key, err := g.pool.Current()
	if err != nil {
		return "", &GatewayError{Kind: ErrKindNoApiKey, Message: "API key not configured. Please set GEMINI_API_KEY."}
	}

	reply, sendErr := g.providerFor(key).ChatMultimodal(ctx, history, prompt, attachments)
	if sendErr == nil {
		return reply, nil
	}

	// Rotate and retry once, bounded. A second failure is surfaced as-is.
	if IsRotatable(sendErr.Error()) && g.pool.Size() > 1 {
		nextKey, advErr := g.pool.Advance()
		if advErr == nil {
			reply, retryErr := g.providerFor(nextKey).ChatMultimodal(ctx, history, prompt, attachments)
			if retryErr == nil {
				return reply, nil
			}
			return "", WrapError(retryErr)
		}
	}

	return "", WrapError(sendErr)
}
