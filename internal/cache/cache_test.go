// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"metapress/internal/models"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// testCache returns a cache whose keys are private to the calling test.
func testCache(t *testing.T) *TaxonomyCache {
	t.Helper()
	client := testValkeyClient(t)
	prefix := "test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})
	return NewTaxonomyCache(client, prefix, time.Minute)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	client, err := ConnectValkey(envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379"), os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()
}

func TestConnectValkeyBadAddress(t *testing.T) {
	if _, err := ConnectValkey("127.0.0.1", "1", ""); err == nil {
		t.Error("expected error for unreachable Valkey")
	}
}

func TestNewTaxonomyCacheDefaults(t *testing.T) {
	c := NewTaxonomyCache(nil, "", 0)
	if c.prefix != DefaultKeyPrefix || c.ttl != DefaultTTL {
		t.Errorf("defaults = %q/%v", c.prefix, c.ttl)
	}
	if got := c.Key(models.KindTag, "page:1:50"); got != "taxonomy:tag:page:1:50" {
		t.Errorf("Key = %q", got)
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *TaxonomyCache
	ctx := context.Background()
	var dst []models.Node
	if c.Get(ctx, models.KindTag, "all", &dst) {
		t.Error("nil cache should never hit")
	}
	c.Set(ctx, models.KindTag, "all", []models.Node{})
	c.InvalidateKind(ctx, models.KindTag)
}

func TestTaxonomyCacheRoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	var got []models.Node
	if c.Get(ctx, models.KindCategory, "all", &got) {
		t.Fatal("expected miss on empty cache")
	}

	want := []models.Node{{ID: 1, Kind: models.KindCategory, Name: "Go", Slug: "go", Order: 1}}
	c.Set(ctx, models.KindCategory, "all", want)

	if !c.Get(ctx, models.KindCategory, "all", &got) {
		t.Fatal("expected hit after Set")
	}
	if len(got) != 1 || got[0].Name != "Go" || got[0].Slug != "go" {
		t.Errorf("got %+v", got)
	}
}

func TestTaxonomyCacheInvalidateKind(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	c.Set(ctx, models.KindTag, "all", []int{1})
	c.Set(ctx, models.KindTag, "page:1:50", []int{1})
	c.Set(ctx, models.KindCategory, "all", []int{2})

	c.InvalidateKind(ctx, models.KindTag)

	var dst []int
	for _, variant := range []string{"all", "page:1:50"} {
		if c.Get(ctx, models.KindTag, variant, &dst) {
			t.Errorf("tag %s should be invalidated", variant)
		}
	}
	if !c.Get(ctx, models.KindCategory, "all", &dst) {
		t.Error("category listing should survive tag invalidation")
	}
}

func TestTaxonomyCacheCorruptEntryIsMiss(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	if err := c.client.Set(ctx, c.Key(models.KindTag, "all"), "not json", time.Minute).Err(); err != nil {
		t.Fatal(err)
	}
	var dst []models.Node
	if c.Get(ctx, models.KindTag, "all", &dst) {
		t.Error("corrupt entry should be a miss")
	}
	if !strings.HasPrefix(c.Key(models.KindTag, "all"), c.prefix) {
		t.Error("key must carry the prefix")
	}
}
