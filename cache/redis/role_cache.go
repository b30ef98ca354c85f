package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/wildlanka/identity/cache"
	"github.com/wildlanka/identity/domain"
)

// RoleCache implements cache.RoleDirectoryCache on Redis so multiple service
// instances share directory hits.
type RoleCache struct {
	client *redis.Client
	prefix string
}

// NewRoleCache creates a new [RoleCache] with an optional key prefix.
func NewRoleCache(client *redis.Client, prefix string) *RoleCache {
	return &RoleCache{
		client: client,
		prefix: prefix,
	}
}

func (r *RoleCache) redisKey(email string) string {
	return fmt.Sprintf("%s:roledir:%s", r.prefix, email)
}

// Get returns the cached role for email. Redis errors are treated as a miss;
// the resolver falls through to the directory query.
func (r *RoleCache) Get(ctx context.Context, email string) (domain.Role, bool) {
	val, err := r.client.Get(ctx, r.redisKey(email)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("email", email).Msg("Role cache read failed, treating as miss")
		}
		return "", false
	}
	role, ok := domain.ParseRole(val)
	if !ok {
		// Stale or foreign value under our key; drop it.
		r.client.Del(ctx, r.redisKey(email))
		return "", false
	}
	return role, true
}

// Set stores the role for email with the given TTL. Failures are logged and
// ignored; caching is best-effort.
func (r *RoleCache) Set(ctx context.Context, email string, role domain.Role, ttl time.Duration) {
	if err := r.client.Set(ctx, r.redisKey(email), string(role), ttl).Err(); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Role cache write failed")
	}
}

var _ cache.RoleDirectoryCache = (*RoleCache)(nil)
