package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"sync/atomic"

	"math/rand"

	"github.com/redis/go-redis/v9"

	"listingradar/internal/scraper"
	apperrors "listingradar/pkg/errors"
)

// trimEvery bounds how often stream maintenance runs relative to publishes.
const trimEvery = 100

// RedisNotifier delivers listings onto Redis streams for downstream
// consumers (chat frontends, archivers). Payloads are base64-encoded JSON.
type RedisNotifier struct {
	client          *redis.Client
	streamPrefix    string
	streamCount     int
	streamMaxLength int
	published       atomic.Int64
}

// NewRedisNotifier creates a new Redis-streams notifier.
func NewRedisNotifier(addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisNotifier{
		client:          client,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Notify publishes one listing to a randomly sharded stream.
func (n *RedisNotifier) Notify(ctx context.Context, listing scraper.Listing) error {
	payload, err := json.Marshal(listing)
	if err != nil {
		return apperrors.NewNotify("redis", "failed to marshal listing", err)
	}

	if err := n.publish(ctx, listing.Marketplace, payload); err != nil {
		return apperrors.NewNotify("redis", "failed to publish listing", err)
	}

	// trim lazily so maintenance cost stays off the hot path
	if n.published.Add(1)%trimEvery == 0 {
		if err := n.TrimStreams(ctx); err != nil {
			return apperrors.NewNotify("redis", "failed to trim streams", err)
		}
	}
	return nil
}

// NotifyError publishes a cycle failure message.
func (n *RedisNotifier) NotifyError(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return apperrors.NewNotify("redis", "failed to marshal error message", err)
	}
	if err := n.publish(ctx, "error", payload); err != nil {
		return apperrors.NewNotify("redis", "failed to publish error message", err)
	}
	return nil
}

func (n *RedisNotifier) publish(ctx context.Context, key string, payload []byte) error {
	encoded := base64.StdEncoding.EncodeToString(payload)

	// random stream name by streamCount; with count 10 the streams are
	// stream:0 .. stream:9
	stream := n.streamPrefix + ":" + strconv.Itoa(rand.Intn(n.streamCount))

	return n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encoded,
		},
	}).Err()
}

// TrimStreams trims all streams to the configured maximum length.
func (n *RedisNotifier) TrimStreams(ctx context.Context) error {
	pattern := n.streamPrefix + ":*"
	streams, err := n.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	for _, stream := range streams {
		if err := n.client.XTrimMaxLen(ctx, stream, int64(n.streamMaxLength)).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the Redis connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
