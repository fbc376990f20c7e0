package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBus backs the Message Bus with Redis sorted sets, one per recipient,
// scored by send time, with a native EXPIRE refreshed on every send —
// grounded on Sergey-Bar-Alfred/services/gateway's redis client usage.
type RedisBus struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBus constructs a RedisBus against the given connection URL
// (redis://host:port/db).
func NewRedisBus(url string, ttl time.Duration) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("messaging: parsing redis url: %w", err)
	}
	return &RedisBus{client: redis.NewClient(opts), ttl: ttl}, nil
}

func inboxKey(to AgentID) string {
	return "aicity:inbox:" + strconv.FormatUint(uint64(to), 10)
}

// Send stores msg in the recipient's sorted set and refreshes its TTL.
func (b *RedisBus) Send(ctx context.Context, msg Message) error {
	if msg.SentTick.IsZero() {
		msg.SentTick = time.Now()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("messaging: marshal: %w", err)
	}
	key := inboxKey(msg.To)
	pipe := b.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(msg.SentTick.UnixNano()), Member: payload})
	pipe.Expire(ctx, key, b.ttl)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("messaging: redis send: %w", err)
	}
	return nil
}

// Inbox returns to's current messages, oldest first, after sweeping
// entries older than the TTL.
func (b *RedisBus) Inbox(ctx context.Context, to AgentID) ([]Message, error) {
	key := inboxKey(to)
	cutoff := time.Now().Add(-b.ttl).UnixNano()
	if err := b.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return nil, fmt.Errorf("messaging: redis sweep: %w", err)
	}
	raw, err := b.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("messaging: redis inbox: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Sweep removes expired entries across every known inbox key. Redis's own
// per-key EXPIRE already reclaims fully-stale inboxes; this additionally
// trims partially-expired sorted sets on an idle sweep tick.
func (b *RedisBus) Sweep(ctx context.Context) error {
	iter := b.client.Scan(ctx, 0, "aicity:inbox:*", 100).Iterator()
	cutoff := time.Now().Add(-b.ttl).UnixNano()
	for iter.Next(ctx) {
		if err := b.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
			return fmt.Errorf("messaging: redis sweep %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}
