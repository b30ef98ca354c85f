package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/wildlanka/identity/domain"
)

// RoleDirectoryCache caches positive specialized-directory matches
// (email -> role) so a burst of first logins for the same email does not
// refan every staff collection. Negative results are never cached: a newly
// provisioned staff record must be visible on the next login.
type RoleDirectoryCache interface {
	Get(ctx context.Context, email string) (domain.Role, bool)
	Set(ctx context.Context, email string, role domain.Role, ttl time.Duration)
}

// MemoryRoleCache is the in-process implementation backed by ttlcache.
type MemoryRoleCache struct {
	cache *ttlcache.Cache[string, domain.Role]
}

// NewMemoryRoleCache creates a memory cache with the given default TTL.
func NewMemoryRoleCache(defaultTTL time.Duration) *MemoryRoleCache {
	c := ttlcache.New(
		ttlcache.WithTTL[string, domain.Role](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, domain.Role](),
	)
	go c.Start() // background expiry sweep

	return &MemoryRoleCache{cache: c}
}

func (m *MemoryRoleCache) Get(_ context.Context, email string) (domain.Role, bool) {
	item := m.cache.Get(email)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

func (m *MemoryRoleCache) Set(_ context.Context, email string, role domain.Role, ttl time.Duration) {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	m.cache.Set(email, role, ttl)
}

// Stop terminates the background expiry goroutine.
func (m *MemoryRoleCache) Stop() {
	m.cache.Stop()
}

var _ RoleDirectoryCache = (*MemoryRoleCache)(nil)
