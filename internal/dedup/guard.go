// Package dedup provides a short-lived idempotency guard backed by Redis.
// The guard is advisory: it suppresses duplicate webhook deliveries and rate
// limits OTP sends within a small window, it is not a correctness mechanism.
// Ledger invariants are enforced transactionally in the store.
package dedup

import (
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"time"

	"github.com/juanctr3/b2b/platform/config"
	"github.com/juanctr3/b2b/platform/logger"

	"github.com/redis/go-redis/v9"
)

const (
	// MessageTTL bounds the window in which a byte-identical inbound
	// message from the same sender is treated as a redelivery.
	MessageTTL = 60 * time.Second
	// OTPTTL is the cooldown between verification-code sends to a client.
	OTPTTL = 45 * time.Second
	// EmailOTPTTL is the independent cooldown for email code delivery.
	EmailOTPTTL = 45 * time.Second

	messagePrefix  = "dedup:msg:"
	otpPrefix      = "dedup:otp:"
	emailOTPPrefix = "dedup:mail:"
)

// Guard acquires single-use keys with a TTL. Expiry is lazy; Redis drops the
// key on its own schedule and a later TryAcquire simply succeeds again.
type Guard struct {
	rdb *redis.Client
	log *logger.Logger
}

// New creates a Guard from the configured Redis URL.
func New(cfg config.RedisConfig, log *logger.Logger) (*Guard, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	} else if opt.TLSConfig == nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Guard{rdb: redis.NewClient(opt), log: log}, nil
}

// NewWithClient wraps an existing Redis client, used by tests.
func NewWithClient(rdb *redis.Client, log *logger.Logger) *Guard {
	return &Guard{rdb: rdb, log: log}
}

// TryAcquire marks the key as held for ttl and reports whether this caller won
// it. A Redis failure fails open: the guard is advisory and a dropped
// suppression is preferable to a dropped message.
func (g *Guard) TryAcquire(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := g.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		g.log.Warn("idempotency guard unavailable", "key", key, "error", err)
		return true
	}
	return ok
}

// Close releases the underlying Redis connection.
func (g *Guard) Close() error {
	return g.rdb.Close()
}

// MessageKey derives the dedup key for an inbound message: the sender plus the
// normalized body, hashed so arbitrary message text stays out of Redis keys.
func MessageKey(sender, body string) string {
	sum := md5.Sum([]byte(sender + body))
	return messagePrefix + hex.EncodeToString(sum[:])
}

// OTPKey is the per-sender cooldown key for verification-code sends.
func OTPKey(sender string) string {
	return otpPrefix + sender
}

// EmailOTPKey is the per-sender cooldown key for email code delivery,
// independent of the message-channel cooldown.
func EmailOTPKey(sender string) string {
	return emailOTPPrefix + sender
}
