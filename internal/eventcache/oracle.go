// Package eventcache remembers recently recorded lead interactions so that repeated
// opens and clicks are stored once per window.
package eventcache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

const keyPrefix = "event"

// Oracle answers whether a (lead, event type) pair was already seen within the window.
type Oracle struct {
	rdb    redis.Cmdable
	window time.Duration
}

// New creates an Oracle backed by rdb.
func New(rdb redis.Cmdable, window time.Duration) *Oracle {
	return &Oracle{rdb: rdb, window: window}
}

// NewClient opens a Redis client from a redis:// or rediss:// URL.
func NewClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if tlsInsecure {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// SeenRecently marks the pair as seen and reports whether it already was. The check
// and the mark are a single atomic SET NX, so concurrent duplicates record once.
func (o *Oracle) SeenRecently(ctx context.Context, leadID uuid.UUID, eventType domain.EventType) (bool, error) {
	set, err := o.rdb.SetNX(ctx, key(leadID, eventType), time.Now().Unix(), o.window).Result()
	if err != nil {
		return false, fmt.Errorf("event dedup: %w", err)
	}
	return !set, nil
}

// Forget clears the mark, letting the next occurrence be recorded.
func (o *Oracle) Forget(ctx context.Context, leadID uuid.UUID, eventType domain.EventType) error {
	return o.rdb.Del(ctx, key(leadID, eventType)).Err()
}

func key(leadID uuid.UUID, eventType domain.EventType) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, leadID, eventType)
}
