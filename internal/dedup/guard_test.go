package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/juanctr3/b2b/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewWithClient(rdb, logger.New("development")), mr
}

func TestTryAcquireHoldsKeyWithinTTL(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	key := MessageKey("573001112233", "ACEPTO 7")
	if !guard.TryAcquire(ctx, key, MessageTTL) {
		t.Fatal("first acquire should succeed")
	}
	if guard.TryAcquire(ctx, key, MessageTTL) {
		t.Fatal("second acquire within TTL should fail")
	}
}

func TestTryAcquireAllowsAfterExpiry(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	key := OTPKey("573001112233")
	if !guard.TryAcquire(ctx, key, OTPTTL) {
		t.Fatal("first acquire should succeed")
	}

	mr.FastForward(OTPTTL + time.Second)

	if !guard.TryAcquire(ctx, key, OTPTTL) {
		t.Fatal("acquire after expiry should succeed")
	}
}

func TestCooldownKeysAreIndependent(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	sender := "573001112233"
	if !guard.TryAcquire(ctx, OTPKey(sender), OTPTTL) {
		t.Fatal("otp acquire should succeed")
	}
	if !guard.TryAcquire(ctx, EmailOTPKey(sender), EmailOTPTTL) {
		t.Fatal("email cooldown must be independent of the otp cooldown")
	}
	if !guard.TryAcquire(ctx, MessageKey(sender, "EMAIL"), MessageTTL) {
		t.Fatal("message dedup must be independent of both cooldowns")
	}
}

func TestMessageKeyDistinguishesSenderAndBody(t *testing.T) {
	a := MessageKey("573001112233", "ACEPTO")
	b := MessageKey("573001112233", "ACEPTO 7")
	c := MessageKey("573009998877", "ACEPTO")

	if a == b || a == c {
		t.Fatalf("keys should differ: %q %q %q", a, b, c)
	}
	if a != MessageKey("573001112233", "ACEPTO") {
		t.Fatal("key derivation must be deterministic")
	}
}

func TestTryAcquireFailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := NewWithClient(rdb, logger.New("development"))

	mr.Close()

	if !guard.TryAcquire(context.Background(), MessageKey("x", "y"), MessageTTL) {
		t.Fatal("guard must fail open when redis is unreachable")
	}
}
