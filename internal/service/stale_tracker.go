package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StaleTracker marca rutas cuya vista cacheada hay que recalcular. Cada marca incrementa
// la version de la ruta; los clientes comparan versiones para saber si refrescar.
type StaleTracker interface {
	MarkStale(ctx context.Context, path string) error
	Version(ctx context.Context, path string) (int64, error)
}

// NormalizePath deja la ruta con "/" inicial y sin "/" final, salvo la raiz.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

type memoryStaleTracker struct {
	mu       sync.Mutex
	versions map[string]int64
}

func NewMemoryStaleTracker() StaleTracker {
	return &memoryStaleTracker{versions: make(map[string]int64)}
}

func (t *memoryStaleTracker) MarkStale(_ context.Context, path string) error {
	path = NormalizePath(path)
	if path == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.versions[path]++
	return nil
}

func (t *memoryStaleTracker) Version(_ context.Context, path string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.versions[NormalizePath(path)], nil
}

type redisStaleClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// StaleChannel es el canal de redis donde se publica cada ruta marcada.
const StaleChannel = "render:stale"

type redisStaleTracker struct {
	client redisStaleClient
	prefix string
}

func NewRedisStaleTracker(client *redis.Client) StaleTracker {
	if client == nil {
		return nil
	}
	return &redisStaleTracker{
		client: client,
		prefix: "render:stale:",
	}
}

func (t *redisStaleTracker) MarkStale(ctx context.Context, path string) error {
	path = NormalizePath(path)
	if path == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := t.client.Incr(ctx, t.prefix+path).Err(); err != nil {
		return err
	}
	return t.client.Publish(ctx, StaleChannel, path).Err()
}

func (t *redisStaleTracker) Version(ctx context.Context, path string) (int64, error) {
	path = NormalizePath(path)
	if path == "" {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	v, err := t.client.Get(ctx, t.prefix+path).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}
