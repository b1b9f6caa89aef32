package embedding

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
)

// Backend names accepted by EMBEDDING_BACKEND.
const (
	BackendTEI    = "tei"
	BackendONNX   = "onnx"
	BackendCohere = "cohere"
	BackendOpenAI = "openai"
)

// NewFromEnv builds the embedding provider configured via environment.
//
// EMBEDDING_BACKEND picks the backend explicitly; when unset the first
// configured one of TEI_URL, ONNX_MODEL_PATH, COHERE_API_KEY, OPENAI_API_KEY
// wins. EMBEDDING_MODEL overrides the model name. When REDIS_ADDR is set the
// provider is wrapped in a Redis-backed cache; an unreachable Redis only
// disables caching.
func NewFromEnv() (Provider, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("EMBEDDING_BACKEND")))
	if backend == "" {
		backend = detectBackend()
	}
	model := strings.TrimSpace(os.Getenv("EMBEDDING_MODEL"))

	var provider Provider
	switch backend {
	case BackendTEI:
		enc, err := NewTEIEncoder(TEIConfig{
			BaseURL: os.Getenv("TEI_URL"),
			Model:   model,
			APIKey:  os.Getenv("TEI_API_KEY"),
		})
		if err != nil {
			return nil, err
		}
		provider = NewPooledProvider(enc)
	case BackendONNX:
		enc, err := NewONNXEncoder(ONNXConfig{
			ModelPath:         os.Getenv("ONNX_MODEL_PATH"),
			TokenizerPath:     os.Getenv("ONNX_TOKENIZER_PATH"),
			SharedLibraryPath: os.Getenv("ONNX_RUNTIME_LIB"),
			ModelName:         model,
		})
		if err != nil {
			return nil, err
		}
		provider = NewPooledProvider(enc)
	case BackendCohere:
		key := os.Getenv("COHERE_API_KEY")
		if key == "" {
			return nil, errors.New("COHERE_API_KEY is required for the cohere backend")
		}
		provider = NewHostedProvider(NewCohereEmbeddings(key, model))
	case BackendOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai backend")
		}
		provider = NewHostedProvider(NewOpenAIEmbeddings(key, model, os.Getenv("OPENAI_EMBEDDINGS_URL")))
	case "":
		return nil, errors.New("no embedding backend configured (set EMBEDDING_BACKEND, TEI_URL, ONNX_MODEL_PATH, COHERE_API_KEY or OPENAI_API_KEY)")
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", backend)
	}

	if os.Getenv("REDIS_ADDR") == "" {
		return provider, nil
	}
	cache, err := NewRedisCacheFromEnv()
	if err != nil {
		log.Printf("Warning: embedding cache disabled: %v", err)
		return provider, nil
	}
	return NewCachedProvider(provider, cache), nil
}

func detectBackend() string {
	switch {
	case os.Getenv("TEI_URL") != "":
		return BackendTEI
	case os.Getenv("ONNX_MODEL_PATH") != "":
		return BackendONNX
	case os.Getenv("COHERE_API_KEY") != "":
		return BackendCohere
	case os.Getenv("OPENAI_API_KEY") != "":
		return BackendOpenAI
	}
	return ""
}
