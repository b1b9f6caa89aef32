package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Pooling selects how token-level hidden states are reduced to one vector.
type Pooling string

const (
	PoolingCLS  Pooling = "cls"
	PoolingMean Pooling = "mean"
	PoolingMax  Pooling = "max"
)

// Valid reports whether p is one of the supported pooling methods.
func (p Pooling) Valid() bool {
	switch p {
	case PoolingCLS, PoolingMean, PoolingMax:
		return true
	}
	return false
}

// ParsePooling converts a user supplied name into a Pooling.
func ParsePooling(name string) (Pooling, error) {
	p := Pooling(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", &InvalidPoolingError{Pooling: name}
	}
	return p, nil
}

// Vector is a fixed-dimension embedding produced by a Provider.
type Vector struct {
	Values  []float32
	Pooling Pooling
}

// Provider turns text into an embedding vector.
// Implementations must be safe for concurrent use.
type Provider interface {
	Embed(ctx context.Context, text string, pooling Pooling) (Vector, error)
	ModelName() string
	Close() error
}

var (
	// ErrInvalidPooling matches any *InvalidPoolingError.
	ErrInvalidPooling = errors.New("invalid pooling method")
	// ErrProvider matches any *ProviderError.
	ErrProvider = errors.New("embedding provider failure")
)

// InvalidPoolingError is returned when a pooling method outside cls/mean/max is requested.
type InvalidPoolingError struct {
	Pooling string
}

func (e *InvalidPoolingError) Error() string {
	return fmt.Sprintf("unsupported pooling method %q (want cls, mean or max)", e.Pooling)
}

func (e *InvalidPoolingError) Is(target error) bool { return target == ErrInvalidPooling }

// ProviderError wraps a failure of the underlying model or embedding service.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("embedding provider error: %v", e.Err)
	}
	return fmt.Sprintf("embedding provider error (%s): %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// WrapProviderError tags err as a ProviderError unless it already is one or
// is an InvalidPoolingError.
func WrapProviderError(model string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProvider) || errors.Is(err, ErrInvalidPooling) {
		return err
	}
	return &ProviderError{Model: model, Err: err}
}
