// internal/quote/idempotency.go
package quote

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"seguros-cotacoes/internal/common/logger"
)

const (
	idempotencyKeyPrefix = "quotes:submission:"
	idempotencyTTL       = 24 * time.Hour
)

// IdempotencyGuard claims client submission tokens so a retried request does
// not create a second quote. Tokens are optional; callers skip the guard when
// no token is present. The guard fails open: if Redis is unreachable the
// submission proceeds and the outage is logged.
type IdempotencyGuard struct {
	client *redis.Client
	logger logger.Logger
}

func NewIdempotencyGuard(client *redis.Client, log logger.Logger) *IdempotencyGuard {
	return &IdempotencyGuard{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "idempotency-guard"}),
	}
}

// Claim returns false when another submission already holds the token.
func (g *IdempotencyGuard) Claim(ctx context.Context, token string) bool {
	if g == nil || g.client == nil || token == "" {
		return true
	}

	ok, err := g.client.SetNX(ctx, idempotencyKeyPrefix+token, "1", idempotencyTTL).Result()
	if err != nil {
		g.logger.Warn("idempotency check unavailable, allowing submission", map[string]interface{}{
			"error": err.Error(),
			"token": token,
		})
		return true
	}
	return ok
}

// Release frees a claimed token so a submission that failed before persisting
// can be retried with the same token.
func (g *IdempotencyGuard) Release(ctx context.Context, token string) {
	if g == nil || g.client == nil || token == "" {
		return
	}
	if err := g.client.Del(ctx, idempotencyKeyPrefix+token).Err(); err != nil {
		g.logger.Warn("failed to release idempotency token", map[string]interface{}{
			"error": err.Error(),
			"token": token,
		})
	}
}
