package cache

import (
	"context"
	"time"
)

// prefixed namespaces every key of an inner cache.
type prefixed struct {
	inner  Cache
	prefix string
}

// WithPrefix returns a Cache that prepends prefix to every key before
// delegating to inner. It lets several tools, or several Python
// interpreters, share one Redis instance without colliding:
//
//	shared, _ := cache.NewRedisCache(ctx, url)
//	c := cache.WithPrefix(shared, "importaudit:")
//
// Closing the returned cache closes inner.
func WithPrefix(inner Cache, prefix string) Cache {
	if inner == nil {
		inner = NewNullCache()
	}
	if prefix == "" {
		return inner
	}
	return &prefixed{inner: inner, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return p.inner.Set(ctx, p.prefix+key, data, ttl)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Close() error { return p.inner.Close() }
