package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

type testBlob struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRedisGateway_MissingKey(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	g := NewRedisGateway(client, RedisGatewayConfig{})
	ctx := context.Background()

	var out testBlob
	found, err := g.Get(ctx, "stats", &out)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true for missing key, expected false")
	}
}

func TestRedisGateway_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	g := NewRedisGateway(client, RedisGatewayConfig{})
	ctx := context.Background()

	in := testBlob{Name: "combo", Count: 42}
	if err := g.Set(ctx, "stats", in); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var out testBlob
	found, err := g.Get(ctx, "stats", &out)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false after Set")
	}
	if out != in {
		t.Errorf("Get() = %+v, expected %+v", out, in)
	}
}

func TestRedisGateway_KeyPrefix(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	g := NewRedisGateway(client, RedisGatewayConfig{KeyPrefix: "test:"})
	ctx := context.Background()

	if err := g.Set(ctx, "enabled", true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if !mr.Exists("test:enabled") {
		t.Error("expected key test:enabled in redis")
	}
}

func TestRedisGateway_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	g := NewRedisGateway(client, RedisGatewayConfig{TTL: time.Hour})
	ctx := context.Background()

	if err := g.Set(ctx, "stats", testBlob{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ttl := mr.TTL(DefaultKeyPrefix + "stats")
	if ttl != time.Hour {
		t.Errorf("TTL = %v, expected %v", ttl, time.Hour)
	}
}

func TestRedisGateway_MalformedBlob(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	g := NewRedisGateway(client, RedisGatewayConfig{})
	ctx := context.Background()

	mr.Set(DefaultKeyPrefix+"stats", "{not json")

	var out testBlob
	if _, err := g.Get(ctx, "stats", &out); err == nil {
		t.Error("Get() expected error for malformed blob")
	}
}

func TestRedisGateway_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	g := NewRedisGateway(client, RedisGatewayConfig{})
	ctx := context.Background()

	if err := g.Set(ctx, "stats", testBlob{Name: "x"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := g.Delete(ctx, "stats"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var out testBlob
	found, err := g.Get(ctx, "stats", &out)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("key still present after Delete")
	}
}

func TestMemoryGateway_RoundTrip(t *testing.T) {
	g := NewMemoryGateway()
	ctx := context.Background()

	in := testBlob{Name: "boss", Count: 7}
	if err := g.Set(ctx, "stats", in); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var out testBlob
	found, err := g.Get(ctx, "stats", &out)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || out != in {
		t.Errorf("Get() = (%+v, %v), expected (%+v, true)", out, found, in)
	}
}
