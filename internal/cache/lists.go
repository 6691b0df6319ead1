package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/KerenDoz/Event-Planner/internal/observability"
)

const (
	KeyCategories = "eventplanner:categories:list:v1"
	KeyLocations  = "eventplanner:locations:list:v1"
)

// Lists caches the reference lists (categories, locations) that back every
// event form. Store failures are logged and fall through to the loader, so
// a down Redis degrades to direct reads.
//
// Each key carries an invalidation generation. A load that overlaps an
// Invalidate never leaves its result cached. Across processes sharing one
// Redis the same overlap is bounded by the store TTL.
type Lists struct {
	store Store
	prom  *observability.Prom
	log   *slog.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

func NewLists(store Store, prom *observability.Prom, log *slog.Logger) *Lists {
	if log == nil {
		log = slog.Default()
	}
	return &Lists{store: store, prom: prom, log: log, gens: make(map[string]uint64)}
}

func (l *Lists) generation(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[key]
}

// Load returns the cached list under key, or calls load and caches its result.
// A nil Lists always calls load.
func Load[T any](ctx context.Context, l *Lists, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if l == nil || l.store == nil {
		return load(ctx)
	}

	gen := l.generation(key)

	b, ok, err := l.store.Get(ctx, key)
	switch {
	case err != nil:
		l.prom.CacheResult(key, "error")
		l.log.WarnContext(ctx, "cache_get_failed", "key", key, "err", err)
	case ok:
		var out []T
		if err := json.Unmarshal(b, &out); err == nil {
			l.prom.CacheResult(key, "hit")
			return out, nil
		}
		l.log.WarnContext(ctx, "cache_decode_failed", "key", key)
	default:
		l.prom.CacheResult(key, "miss")
	}

	out, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if l.generation(key) != gen {
		return out, nil
	}

	b, err = json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := l.store.Set(ctx, key, b); err != nil {
		l.log.WarnContext(ctx, "cache_set_failed", "key", key, "err", err)
		return out, nil
	}

	// an Invalidate that landed between the check and the write
	if l.generation(key) != gen {
		if err := l.store.Delete(ctx, key); err != nil {
			l.log.WarnContext(ctx, "cache_invalidate_failed", "keys", []string{key}, "err", err)
		}
	}
	return out, nil
}

// Invalidate drops keys after a mutation.
func (l *Lists) Invalidate(ctx context.Context, keys ...string) {
	if l == nil || l.store == nil {
		return
	}

	l.mu.Lock()
	for _, k := range keys {
		l.gens[k]++
	}
	l.mu.Unlock()

	if err := l.store.Delete(ctx, keys...); err != nil {
		l.log.WarnContext(ctx, "cache_invalidate_failed", "keys", keys, "err", err)
	}
}
