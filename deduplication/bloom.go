package deduplication

import (
	"context"
	"fmt"
	"log"
	"time"

	"examguard/config"

	"github.com/redis/go-redis/v9"
)

// BloomConfig configures RedisBloom connection and key
type BloomConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Key      string // redis key for bloom filter
	TTL      time.Duration
	// Capacity sets the initial BF.RESERVE capacity (number of items)
	Capacity int
	// ErrorRate sets the desired false positive probability (e.g. 0.001)
	ErrorRate float64
	// If true, BF.RESERVE NONSCALING flag will be used
	NonScaling bool
}

// RedisBloom remembers fingerprints of handled analysis requests using
// RedisBloom commands.
type RedisBloom struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// BloomConfigFromEnv reads REDIS_ADDR, REDIS_PASS, BLOOM_KEY,
// BLOOM_TTL_SECONDS, BLOOM_CAPACITY, BLOOM_ERROR_RATE and BLOOM_NONSCALING.
func BloomConfigFromEnv() BloomConfig {
	return BloomConfig{
		Addr:       config.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password:   config.GetEnvOrDefault("REDIS_PASS", ""),
		Key:        config.GetEnvOrDefault("BLOOM_KEY", "analysis:requests:bloom"),
		TTL:        time.Duration(config.GetEnvIntOrDefault("BLOOM_TTL_SECONDS", 7*24*3600)) * time.Second,
		Capacity:   config.GetEnvIntOrDefault("BLOOM_CAPACITY", 100000),
		ErrorRate:  config.GetEnvFloatOrDefault("BLOOM_ERROR_RATE", 0.001),
		NonScaling: config.GetEnvBool("BLOOM_NONSCALING"),
	}
}

// NewRedisBloom creates a RedisBloom wrapper and verifies connectivity
func NewRedisBloom(cfg BloomConfig) (*RedisBloom, error) {
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

	// BF.ADD auto-creates the filter with server defaults if BF.RESERVE fails.
	exists, err := client.Exists(ctx, cfg.Key).Result()
	if err == nil && exists == 0 {
		args := []any{"BF.RESERVE", cfg.Key, fmt.Sprintf("%f", cfg.ErrorRate), cfg.Capacity}
		if cfg.NonScaling {
			args = append(args, "NONSCALING")
		}
		if err := client.Do(ctx, args...).Err(); err != nil {
			log.Printf("Warning: BF.RESERVE %s failed: %v", cfg.Key, err)
		}
	}

	return &RedisBloom{client: client, key: cfg.Key, ttl: cfg.TTL}, nil
}

func (r *RedisBloom) Close() error {
	return r.client.Close()
}

// Exists reports whether the fingerprint may have been added before.
func (r *RedisBloom) Exists(ctx context.Context, fingerprint string) (bool, error) {
	res, err := r.client.Do(ctx, "BF.EXISTS", r.key, fingerprint).Result()
	if err != nil {
		return false, err
	}
	return bloomBool(res)
}

// Add inserts the fingerprint and slides the key's TTL forward.
func (r *RedisBloom) Add(ctx context.Context, fingerprint string) error {
	if err := r.client.Do(ctx, "BF.ADD", r.key, fingerprint).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, r.key, r.ttl).Err()
}

func bloomBool(res any) (bool, error) {
	switch v := res.(type) {
	case int64:
		return v == 1, nil
	case bool:
		return v, nil
	case string:
		return v == "1", nil
	default:
		return false, fmt.Errorf("unexpected BF.EXISTS response type %T: %v", res, res)
	}
}
