package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

// cacheNameFromKey reduces "post:my-slug" to "post" for metric labels.
func cacheNameFromKey(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// Aside implements the cache-aside pattern: on a hit, dest is filled from the
// cached JSON; on a miss, fill() is invoked and its result cached with the
// given TTL. Redis being down or slow degrades to calling fill() directly —
// a cache failure must never fail the read.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fill func() error) error {
	name := cacheNameFromKey(key)

	if client != nil {
		raw, err := client.Get(ctx, key).Result()
		switch {
		case err == nil:
			if unmarshalErr := json.Unmarshal([]byte(raw), dest); unmarshalErr == nil {
				observability.CacheRequests.WithLabelValues(name, "hit").Inc()
				return nil
			}
			// Corrupt entry: drop it and fall through to the source of truth.
			client.Del(ctx, key)
		case errors.Is(err, redis.Nil):
			observability.CacheRequests.WithLabelValues(name, "miss").Inc()
		default:
			observability.CacheRequests.WithLabelValues(name, "error").Inc()
		}
	}

	if err := fill(); err != nil {
		return err
	}

	if client != nil {
		if bytes, err := json.Marshal(dest); err == nil {
			if err := client.Set(ctx, key, bytes, ttl).Err(); err != nil {
				middleware.Logger.DebugContext(ctx, "cache set failed",
					slog.String("key", key), slog.String("error", err.Error()))
			}
		}
	}

	return nil
}

// SetJSON stores v as JSON under key with the given TTL.
func SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, bytes, ttl).Err()
}

// GetJSON loads the JSON under key into dest. Returns false on a miss.
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}
