package cache

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/contribnet/pkg/httputil"
)

// fakeRedis is an in-memory stand-in for the go-redis client.
type fakeRedis struct {
	data   map[string][]byte
	ttl    map[string]time.Duration
	err    error
	calls  int
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.calls++
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.calls++
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = value.([]byte)
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, f.err)
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := &RedisCache{client: fake, prefix: "contribnet:"}

	if _, hit, err := c.Get(ctx, "artifact:x"); hit || err != nil {
		t.Fatalf("miss: hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "artifact:x", []byte("<svg/>"), TTLArtifact); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if fake.ttl["contribnet:artifact:x"] != TTLArtifact {
		t.Errorf("ttl = %v, want %v", fake.ttl["contribnet:artifact:x"], TTLArtifact)
	}
	data, hit, err := c.Get(ctx, "artifact:x")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "artifact:x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:x"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Close(); err != nil || !fake.closed {
		t.Errorf("Close: %v, closed %v", err, fake.closed)
	}
}

func TestRedisCacheErrors(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	fake := newFakeRedis()
	fake.err = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	c := &RedisCache{client: fake}
	if _, _, err := c.Get(ctx, "k"); err == nil || errors.As(err, new(*httputil.RetryableError)) {
		t.Errorf("server error should fail without retry: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}

	fake = newFakeRedis()
	fake.err = &net.OpError{Op: "dial", Err: timeoutErr{}}
	c = &RedisCache{client: fake}
	err := c.Set(ctx, "k", []byte("v"), 0)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("network failure not reported as ErrNetwork: %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3 retries", fake.calls)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisConfig{URL: "http://not-redis"}); err == nil {
		t.Error("expected error for non-redis URL")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
