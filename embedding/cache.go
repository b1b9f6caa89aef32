package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"examguard/config"

	"github.com/redis/go-redis/v9"
)

// Cache is a persistent store of embedding vectors shared across runs.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, values []float32) error
}

// RedisCacheConfig configures the Redis connection and key layout.
type RedisCacheConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisCache stores vectors as little-endian float32 blobs.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheFromEnv reads REDIS_ADDR, REDIS_PASS, REDIS_DB,
// EMBED_CACHE_PREFIX and EMBED_CACHE_TTL_SECONDS.
func NewRedisCacheFromEnv() (*RedisCache, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			db = n
		}
	}
	prefix := os.Getenv("EMBED_CACHE_PREFIX")
	if prefix == "" {
		prefix = "examguard:emb:"
	}
	ttl := config.EmbeddingCacheTTL
	if t := os.Getenv("EMBED_CACHE_TTL_SECONDS"); t != "" {
		if secs, err := strconv.Atoi(t); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}
	return NewRedisCache(RedisCacheConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASS"),
		DB:       db,
		Prefix:   prefix,
		TTL:      ttl,
	})
}

// NewRedisCache creates the cache and verifies connectivity.
func NewRedisCache(cfg RedisCacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisCache{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := decodeVector(b)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, values []float32) error {
	return r.client.Set(ctx, r.prefix+key, encodeVector(values), r.ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func encodeVector(values []float32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached vector of %d bytes", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out, nil
}

// CacheKey is sha256(model|pooling|text) in hex.
func CacheKey(model string, pooling Pooling, text string) string {
	h := sha256.Sum256([]byte(model + "|" + string(pooling) + "|" + text))
	return hex.EncodeToString(h[:])
}

// CachedProvider consults a Cache before calling the wrapped provider.
// Cache failures are logged and never fail an embedding request.
type CachedProvider struct {
	provider Provider
	cache    Cache
}

func NewCachedProvider(provider Provider, cache Cache) *CachedProvider {
	return &CachedProvider{provider: provider, cache: cache}
}

func (c *CachedProvider) ModelName() string { return c.provider.ModelName() }

func (c *CachedProvider) Embed(ctx context.Context, text string, pooling Pooling) (Vector, error) {
	if !pooling.Valid() {
		return Vector{}, &InvalidPoolingError{Pooling: string(pooling)}
	}
	key := CacheKey(c.ModelName(), pooling, text)

	values, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Printf("Warning: embedding cache read failed: %v", err)
	} else if ok {
		return Vector{Values: values, Pooling: pooling}, nil
	}

	vec, err := c.provider.Embed(ctx, text, pooling)
	if err != nil {
		return Vector{}, err
	}
	if err := c.cache.Set(ctx, key, vec.Values); err != nil {
		log.Printf("Warning: embedding cache write failed: %v", err)
	}
	return vec, nil
}

// Close closes the wrapped provider and the cache when it holds resources.
func (c *CachedProvider) Close() error {
	err := c.provider.Close()
	if closer, ok := c.cache.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
