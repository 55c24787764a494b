// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// taxonomy.go caches category and tag listings in Valkey. Entries are
// JSON-encoded and grouped by kind so that a committed mutation can drop
// every listing of that kind at once. Cache failures are logged and treated
// as misses; the database stays the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"metapress/internal/models"
)

const (
	// DefaultKeyPrefix is the Valkey key prefix for taxonomy listings.
	DefaultKeyPrefix = "taxonomy:"

	// DefaultTTL bounds how long a listing may be served after an
	// invalidation was lost.
	DefaultTTL = 5 * time.Minute
)

// TaxonomyCache stores listing responses keyed by kind and variant.
// A nil *TaxonomyCache is valid and never hits.
type TaxonomyCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewTaxonomyCache creates a cache backed by the given Valkey client.
// An empty prefix or zero ttl selects the defaults.
func NewTaxonomyCache(client redis.Cmdable, prefix string, ttl time.Duration) *TaxonomyCache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &TaxonomyCache{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the Valkey key for a listing.
func (c *TaxonomyCache) Key(kind models.Kind, variant string) string {
	return c.prefix + string(kind) + ":" + variant
}

// Get decodes a cached listing into dst. Returns false on a miss or error.
func (c *TaxonomyCache) Get(ctx context.Context, kind models.Kind, variant string, dst any) bool {
	if c == nil {
		return false
	}
	key := c.Key(kind, variant)
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.WarnContext(ctx, "taxonomy cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.WarnContext(ctx, "taxonomy cache decode error", "key", key, "error", err)
		return false
	}
	slog.DebugContext(ctx, "taxonomy cache hit", "key", key)
	return true
}

// Set stores a listing with the configured TTL.
func (c *TaxonomyCache) Set(ctx context.Context, kind models.Kind, variant string, v any) {
	if c == nil {
		return
	}
	key := c.Key(kind, variant)
	data, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "taxonomy cache encode error", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "taxonomy cache set error", "key", key, "error", err)
	}
}

// InvalidateKind removes every cached listing of a kind by scanning for
// its prefix.
func (c *TaxonomyCache) InvalidateKind(ctx context.Context, kind models.Kind) {
	if c == nil {
		return
	}
	pattern := c.prefix + string(kind) + ":*"

	var cursor uint64
	var deleted int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.WarnContext(ctx, "taxonomy cache scan error", "pattern", pattern, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.WarnContext(ctx, "taxonomy cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.DebugContext(ctx, "taxonomy cache invalidated", "type", kind, "deleted", deleted)
}
