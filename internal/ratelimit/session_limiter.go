package ratelimit

import (
	"context"

	"github.com/dermalens/dermalens/internal/config"
	"go.uber.org/zap"
)

// SessionLimiter guards the public heartbeat endpoints. A nil limiter (redis
// unconfigured) allows everything so session tracking keeps working without
// infrastructure.
type SessionLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewSessionLimiter(cfg config.Config, bucket *TokenBucket, log *zap.Logger) *SessionLimiter {
	if !cfg.RateLimit.Enabled || bucket == nil {
		return nil
	}
	rate := cfg.RateLimit.SessionRate
	if rate <= 0 {
		rate = 5
	}
	burst := cfg.RateLimit.SessionBurst
	if burst <= 0 {
		burst = 20
	}
	return &SessionLimiter{
		bucket: bucket,
		rate:   rate,
		burst:  burst,
		log:    log.Named("ratelimit.session"),
	}
}

// Allow reports whether the client may hit a session endpoint. Redis
// failures fail open with a warn log.
func (l *SessionLimiter) Allow(ctx context.Context, clientKey string) bool {
	if l == nil || l.bucket == nil {
		return true
	}
	if clientKey == "" {
		return true
	}

	result, err := l.bucket.Allow(ctx, "ratelimit:session:"+clientKey, l.rate, l.burst)
	if err != nil {
		l.log.Warn("session rate limiter unavailable", zap.Error(err))
		return true
	}
	return result.Allowed
}
