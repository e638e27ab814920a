package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Only the holder's token may delete the key. A lock that outlived its
// TTL belongs to whoever re-acquired it, releasing blindly would free
// someone else's resolution.
const codeLockReleaseScript = `
local held = redis.call("GET", KEYS[1])
if held == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// CodeLock serializes paid resolutions of a single scanned code within
// a tenant. Two stations scanning the same pallet item seconds apart
// would otherwise both miss the cache and both pay for the upstream
// chain; the loser of the lock retries against a warm cache instead.
type CodeLock struct {
	client *redis.Client
	script *redis.Script
}

func NewCodeLock(client *redis.Client) *CodeLock {
	if client == nil {
		return nil
	}
	return &CodeLock{
		client: client,
		script: redis.NewScript(codeLockReleaseScript),
	}
}

func codeLockKey(tenantID, code string) string {
	return fmt.Sprintf("scan:lock:%s:%s", strings.TrimSpace(tenantID), strings.TrimSpace(code))
}

// Acquire takes the lock for the tenant's code. The returned token
// identifies this holder and must be passed back to Release; if the
// holder crashes the TTL expires the key on its own.
func (l *CodeLock) Acquire(ctx context.Context, tenantID, code string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("code lock client not configured")
	}
	if strings.TrimSpace(code) == "" {
		return "", false, errors.New("code lock needs a code")
	}
	if ttl <= 0 {
		return "", false, errors.New("code lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, codeLockKey(tenantID, code), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release frees the lock if token still holds it. Releasing a lock the
// caller lost, or never held, is a no-op.
func (l *CodeLock) Release(ctx context.Context, tenantID, code, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if strings.TrimSpace(code) == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{codeLockKey(tenantID, code)}, token).Err()
}
