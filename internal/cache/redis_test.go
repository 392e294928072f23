package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	if _, ok, err := c.Get(ctx, "openplz:localities:wald"); ok || err != nil {
		t.Fatalf("Get on empty redis = %v, %v; want miss without error", ok, err)
	}

	if err := c.Set(ctx, "openplz:localities:wald", []byte(`[]`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists(keyPrefix + "openplz:localities:wald") {
		t.Fatalf("expected prefixed key in redis")
	}

	b, ok, err := c.Get(ctx, "openplz:localities:wald")
	if err != nil || !ok || string(b) != "[]" {
		t.Fatalf("Get = %q, %v, %v", b, ok, err)
	}

	mr.FastForward(time.Hour + time.Second)
	if _, ok, _ := c.Get(ctx, "openplz:localities:wald"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestRedisCacheGetError(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)
	mr.Close()

	if _, ok, err := c.Get(ctx, "k"); ok || err == nil {
		t.Fatalf("expected an error from a closed server, got ok=%v err=%v", ok, err)
	}
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := DialRedis(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := DialRedis(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Fatalf("expected error dialing a closed port")
	}
}
