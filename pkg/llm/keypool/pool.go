package keypool

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrPoolExhausted is returned when no credentials are configured.
	ErrPoolExhausted = errors.New("credential pool is empty")

	// ErrNoAlternative is returned by Advance when the pool holds a single
	// credential and rotation would be a no-op.
	ErrNoAlternative = errors.New("no alternative credential in pool")
)

// Pool holds an ordered set of provider API keys and rotates through them
// round-robin. Order is significant; a key's identity is its position.
// Keys live only in memory and are never persisted.
type Pool struct {
	mu      sync.Mutex
	keys    []string
	current int
}

// New builds a pool from the given keys, dropping empty entries.
func New(keys []string) *Pool {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if s := strings.TrimSpace(k); s != "" {
			clean = append(clean, s)
		}
	}
	return &Pool{keys: clean}
}

// Current returns the active credential.
func (p *Pool) Current() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", ErrPoolExhausted
	}
	return p.keys[p.current], nil
}

// Advance rotates to the next credential and returns it. With a single
// entry there is nothing to rotate to and ErrNoAlternative is returned.
func (p *Pool) Advance() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", ErrPoolExhausted
	}
	if len(p.keys) == 1 {
		return "", ErrNoAlternative
	}
	p.current = (p.current + 1) % len(p.keys)
	return p.keys[p.current], nil
}

// Size returns the number of credentials in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Index returns the position of the active credential.
func (p *Pool) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
