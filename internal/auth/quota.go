package auth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
	rrate "github.com/go-redis/redis_rate/v9"
)

// Quota limits how often a key may be used, qps times per second. State is
// kept in redis so limits hold across server instances.
type Quota struct {
	limiter *rrate.Limiter
	qps     int
	log     *slog.Logger
}

func NewQuota(rdb *redis.Client, qps int, log *slog.Logger) *Quota {
	return &Quota{
		limiter: rrate.NewLimiter(rdb.WithTimeout(100 * time.Millisecond)),
		qps:     qps,
		log:     log,
	}
}

// Allow reports whether one more use of key is within quota. Redis
// failures allow the request.
func (q *Quota) Allow(ctx context.Context, key string) bool {
	res, err := q.limiter.Allow(ctx, "quota:"+key, rrate.PerSecond(q.qps))
	if err != nil {
		var nerr *net.OpError
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
			q.log.Warn("quota: redis limiter timeout", "key", key, "error", err)
		} else {
			q.log.Error("quota: redis limiter", "key", key, "error", err)
		}
		return true
	}
	return res.Allowed > 0
}
