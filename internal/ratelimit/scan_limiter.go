package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/scanbase/scanbase/internal/config"
)

const keyScanTenant = "scan:tenant:%s"

// ScanLimiter throttles scan requests per tenant and serializes
// concurrent resolutions of the same code. A nil limiter (rate
// limiting disabled) allows everything.
type ScanLimiter struct {
	enabled bool

	bucket *TokenBucket
	lock   *CodeLock

	rate    float64
	burst   int
	lockTTL time.Duration
}

func NewScanLimiter(cfg config.Config) (*ScanLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ScanRate <= 0 || limitCfg.ScanBurst <= 0 {
		return nil, errors.New("scan rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ScanLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		lock:    NewCodeLock(client),
		rate:    limitCfg.ScanRate,
		burst:   limitCfg.ScanBurst,
		lockTTL: 45 * time.Second,
	}, nil
}

func (l *ScanLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ScanLimiter) AllowTenant(ctx context.Context, tenantID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyScanTenant, strings.TrimSpace(tenantID)), l.rate, l.burst)
}

func (l *ScanLimiter) TryLockCode(ctx context.Context, tenantID, code string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.lock.Acquire(ctx, tenantID, code, l.lockTTL)
}

func (l *ScanLimiter) ReleaseCode(ctx context.Context, tenantID, code, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.lock.Release(ctx, tenantID, code, token)
}
