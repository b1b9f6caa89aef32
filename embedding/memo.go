package embedding

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo deduplicates embedding requests for identical (text, pooling) pairs.
// It is scoped to one unit of work (a report build) and discarded afterwards.
// Concurrent requests for the same key share a single provider call.
// Failed calls are not memoized.
type Memo struct {
	provider Provider

	mu      sync.RWMutex
	vectors map[string]Vector
	group   singleflight.Group
}

// NewMemo wraps provider. Closing a Memo never closes the wrapped provider.
func NewMemo(provider Provider) *Memo {
	return &Memo{
		provider: provider,
		vectors:  make(map[string]Vector),
	}
}

func memoKey(text string, pooling Pooling) string {
	return string(pooling) + "\x00" + text
}

func (m *Memo) ModelName() string { return m.provider.ModelName() }

func (m *Memo) Embed(ctx context.Context, text string, pooling Pooling) (Vector, error) {
	if !pooling.Valid() {
		return Vector{}, &InvalidPoolingError{Pooling: string(pooling)}
	}
	key := memoKey(text, pooling)

	m.mu.RLock()
	vec, ok := m.vectors[key]
	m.mu.RUnlock()
	if ok {
		return vec, nil
	}

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		m.mu.RLock()
		cached, ok := m.vectors[key]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}

		fresh, err := m.provider.Embed(ctx, text, pooling)
		if err != nil {
			return Vector{}, err
		}
		m.mu.Lock()
		m.vectors[key] = fresh
		m.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return Vector{}, err
	}
	return v.(Vector), nil
}

// Len returns the number of memoized vectors.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func (m *Memo) Close() error { return nil }
