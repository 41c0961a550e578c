package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"arivu-ai-be/pkg/prompt"
)

// ToolModeRepository holds the pending tool-mode selection per session.
// The selection is armed by the toolbar and consumed by the next send.
type ToolModeRepository struct {
	cache *cache.Cache
}

func NewToolModeRepository() *ToolModeRepository {
	// Pending selections expire after an hour; expired items are purged
	// every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ToolModeRepository{
		cache: c,
	}
}

func (r *ToolModeRepository) Arm(sessionID string, mode prompt.ToolMode) {
	r.cache.Set(sessionID, mode, cache.DefaultExpiration)
}

func (r *ToolModeRepository) Peek(sessionID string) (prompt.ToolMode, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(prompt.ToolMode), true
	}
	return prompt.ModeNone, false
}

// Consume returns the armed mode and clears it, so a selection applies
// to exactly one exchange.
func (r *ToolModeRepository) Consume(sessionID string) (prompt.ToolMode, bool) {
	mode, found := r.Peek(sessionID)
	if found {
		r.cache.Delete(sessionID)
	}
	return mode, found
}

func (r *ToolModeRepository) Clear(sessionID string) {
	r.cache.Delete(sessionID)
}
