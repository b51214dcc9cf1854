package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	memberKeyPrefix = "member_id:"
	memberTTL       = 15 * time.Minute
)

// MemberIDCache caches resolved username to member-id mappings so repeated
// lookups skip the membership API search. Entries expire so renamed or
// removed members do not stay resolvable forever. The cache is best effort:
// Redis failures are logged and treated as misses, never surfaced to the
// caller.
type MemberIDCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewMemberIDCache(client *redis.Client, log zerolog.Logger) *MemberIDCache {
	return &MemberIDCache{
		client: client,
		ttl:    memberTTL,
		log:    log.With().Str("component", "member_cache").Logger(),
	}
}

// Get returns the cached member id for username, if present.
func (c *MemberIDCache) Get(ctx context.Context, username string) (int, bool) {
	val, err := c.client.Get(ctx, memberKeyPrefix+username).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("member cache read failed")
		return 0, false
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Set stores the member id for username with the cache TTL.
func (c *MemberIDCache) Set(ctx context.Context, username string, id int) {
	err := c.client.Set(ctx, memberKeyPrefix+username, strconv.Itoa(id), c.ttl).Err()
	if err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("member cache write failed")
	}
}
