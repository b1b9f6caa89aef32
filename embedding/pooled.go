package embedding

import (
	"context"
	"fmt"
)

// TokenEncoder runs a transformer over one text and returns its last hidden
// layer. Implementations must be safe for concurrent use.
type TokenEncoder interface {
	Encode(ctx context.Context, text string) (TokenStates, error)
	ModelName() string
	Close() error
}

// PooledProvider implements Provider on top of token-level encoder output,
// so all three pooling methods are computed locally.
type PooledProvider struct {
	encoder TokenEncoder
}

// NewPooledProvider wraps encoder. The provider owns the encoder and closes it.
func NewPooledProvider(encoder TokenEncoder) *PooledProvider {
	return &PooledProvider{encoder: encoder}
}

func (p *PooledProvider) ModelName() string { return p.encoder.ModelName() }

func (p *PooledProvider) Embed(ctx context.Context, text string, pooling Pooling) (Vector, error) {
	if !pooling.Valid() {
		return Vector{}, &InvalidPoolingError{Pooling: string(pooling)}
	}
	states, err := p.encoder.Encode(ctx, text)
	if err != nil {
		return Vector{}, WrapProviderError(p.ModelName(), fmt.Errorf("failed to encode text: %w", err))
	}
	vec, err := Pool(states, pooling)
	if err != nil {
		return Vector{}, WrapProviderError(p.ModelName(), err)
	}
	return vec, nil
}

func (p *PooledProvider) Close() error { return p.encoder.Close() }
