package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service is a byte-oriented JSON cache. Values are marshalled on Set and
// unmarshalled into dest on Get.
type Service interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Key joins parts into a colon separated cache key.
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ":")
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. A cache that cannot be read is treated as a miss. Cache read and
// write failures are returned alongside the loaded value.
func GetOrLoad[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var v T
	var readErr error
	if err := c.Get(ctx, key, &v); err == nil {
		return v, true, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		readErr = fmt.Errorf("cache get %s: %w", key, err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, false, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		return v, false, errors.Join(readErr, fmt.Errorf("cache set %s: %w", key, err))
	}
	return v, false, readErr
}
