package embedding

import (
	"context"
	"errors"
)

// SentenceEmbedder abstracts a hosted text->embedding API that returns one
// already-pooled vector per input text.
type SentenceEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// HostedProvider adapts a SentenceEmbedder to Provider. Hosted services pool
// server-side, so every valid pooling method resolves to the service's
// sentence vector; the requested method is still validated and recorded.
type HostedProvider struct {
	embedder SentenceEmbedder
}

func NewHostedProvider(embedder SentenceEmbedder) *HostedProvider {
	return &HostedProvider{embedder: embedder}
}

func (h *HostedProvider) ModelName() string { return h.embedder.ModelName() }

func (h *HostedProvider) Embed(ctx context.Context, text string, pooling Pooling) (Vector, error) {
	if !pooling.Valid() {
		return Vector{}, &InvalidPoolingError{Pooling: string(pooling)}
	}
	vecs, err := h.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return Vector{}, WrapProviderError(h.ModelName(), err)
	}
	if len(vecs) != 1 {
		return Vector{}, WrapProviderError(h.ModelName(), errors.New("embedding count mismatch"))
	}
	return Vector{Values: vecs[0], Pooling: pooling}, nil
}

func (h *HostedProvider) Close() error { return nil }
