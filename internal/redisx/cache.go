package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"producer-chat/internal/domain/user"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key pattern:
// - profile:{user_id} - resolved directory profile, short TTL

const profileTTL = 5 * time.Minute

// ProfileCache caches resolved directory profiles so the inbox does not hit
// the profiles table on every aggregation.
type ProfileCache struct {
	client *goredis.Client
}

func NewProfileCache(client *goredis.Client) *ProfileCache {
	return &ProfileCache{client: client}
}

func profileKey(id uuid.UUID) string {
	return fmt.Sprintf("profile:%s", id)
}

// GetMany returns the cached profiles among ids and the ids that missed.
func (c *ProfileCache) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, []uuid.UUID, error) {
	if c == nil || len(ids) == 0 {
		return nil, ids, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, ids, err
	}

	hits := make(map[uuid.UUID]user.Profile)
	var misses []uuid.UUID
	for i, raw := range values {
		data, ok := raw.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var p user.Profile
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		hits[p.ID] = p
	}
	return hits, misses, nil
}

// SetMany stores profiles with the standard TTL.
func (c *ProfileCache) SetMany(ctx context.Context, profiles []user.Profile) error {
	if c == nil || len(profiles) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, p := range profiles {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(ctx, profileKey(p.ID), data, profileTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate drops one cached profile.
func (c *ProfileCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if c == nil {
		return nil
	}
	err := c.client.Del(ctx, profileKey(id)).Err()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	return err
}
