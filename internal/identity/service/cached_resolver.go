package service

import (
	"context"
	"sync"
	"time"

	identityDomain "github.com/kbalijepalli/dreas/internal/identity/domain"
)

// cachedResolver decorates a Resolver with a TTL cache keyed by token hash.
//
// Successful resolutions are cached so repeated requests from the same
// principal do not hit the underlying resolver on every call. Failures are
// never cached: a revoked token stops resolving as soon as the cached entry
// expires, and an unknown token is re-checked every time.
type cachedResolver struct {
	next   Resolver
	tokens TokenService
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	identity  *identityDomain.Identity
	expiresAt time.Time
}

// NewCachedResolver wraps the resolver with a TTL cache.
func NewCachedResolver(next Resolver, tokens TokenService, ttl time.Duration) Resolver {
	return &cachedResolver{
		next:    next,
		tokens:  tokens,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Resolve returns a cached identity when present and fresh, otherwise
// delegates to the underlying resolver and caches the result.
func (r *cachedResolver) Resolve(
	ctx context.Context,
	token string,
) (*identityDomain.Identity, error) {
	key := r.tokens.HashToken(token)

	r.mu.Lock()
	entry, ok := r.entries[key]
	if ok && r.now().Before(entry.expiresAt) {
		r.mu.Unlock()
		return entry.identity, nil
	}
	if ok {
		delete(r.entries, key)
	}
	r.mu.Unlock()

	identity, err := r.next.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[key] = cacheEntry{identity: identity, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()

	return identity, nil
}
