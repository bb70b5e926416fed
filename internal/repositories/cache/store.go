// Package cache provides the TTL key/value stores used for short lived
// state such as verification codes and rate-limit counters.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoTTL = errors.New("cache: ttl must be positive")

// Store is a JSON encoding key/value store with per-key expiry.
type Store interface {
	// Get decodes the value under key into dest and reports whether the
	// key existed.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr atomically adds one to the integer under key and returns the
	// new value. ttl is applied only when the key is created, so a
	// counter expires a fixed ttl after its first increment.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type EntityType string

const (
	EntityOTP         EntityType = "otp"
	EntityOTPAttempts EntityType = "otp_attempts"
	EntityOTPClaim    EntityType = "otp_claim"
	EntityRateLimit   EntityType = "otp_rate"
	EntityWallet      EntityType = "wallet"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, parts ...interface{}) string {
	key := string(entity)
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}
