package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), srv
}

func TestRedisStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "k", []byte(`{"v":1}`), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(val) != `{"v":1}` {
		t.Fatalf("get: val=%q ok=%v err=%v", val, ok, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("deleted key should be gone")
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store, srv := newTestRedisStore(t)

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	srv.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expired key should be gone")
	}
}
