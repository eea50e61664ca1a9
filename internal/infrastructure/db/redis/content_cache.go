package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// ContentCache stores provider payloads in Redis.
// Key format: content:<tool>:<sha256(input)>
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContentCache wraps client. A non-positive ttl uses the default.
func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ContentCache{client: client, ttl: ttl}
}

// Get reports a miss (false, nil) when the key does not exist.
func (c *ContentCache) Get(ctx context.Context, tool, input string) (json.RawMessage, bool, error) {
	b, err := c.client.Get(ctx, c.key(tool, input)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("content cache get: %w", err)
	}
	return json.RawMessage(b), true, nil
}

func (c *ContentCache) Set(ctx context.Context, tool, input string, payload json.RawMessage) error {
	if err := c.client.Set(ctx, c.key(tool, input), []byte(payload), c.ttl).Err(); err != nil {
		return fmt.Errorf("content cache set: %w", err)
	}
	return nil
}

func (c *ContentCache) key(tool, input string) string {
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("content:%s:%s", tool, hex.EncodeToString(sum[:]))
}
