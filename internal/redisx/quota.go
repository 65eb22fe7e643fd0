package redisx

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Quota key pattern:
// - quota:{user_id}:messages - window TTL, free-tier send cap

// QuotaConfig contains configuration for the messaging quota
type QuotaConfig struct {
	Limit  int           // Max messages per window; zero disables the quota
	Window time.Duration // Quota window
}

// DefaultQuotaConfig returns the free-tier defaults
func DefaultQuotaConfig() QuotaConfig {
	return QuotaConfig{
		Limit:  100, // 100 messages per day on the free tier
		Window: 24 * time.Hour,
	}
}

// MessageQuota enforces the per-user messaging cap using Redis
type MessageQuota struct {
	client *goredis.Client
	config QuotaConfig
}

// QuotaResult contains the result of a quota check
type QuotaResult struct {
	Allowed   bool          // Whether the send is allowed
	Remaining int           // Remaining sends in the window
	ResetIn   time.Duration // Time until the window resets
	Limit     int           // The cap for this user
}

// NewMessageQuota creates a new quota enforcer
func NewMessageQuota(client *goredis.Client, config QuotaConfig) *MessageQuota {
	return &MessageQuota{
		client: client,
		config: config,
	}
}

// Allow checks whether userID may send another message and consumes one unit
// of the window when it may.
func (q *MessageQuota) Allow(ctx context.Context, userID string) (*QuotaResult, error) {
	if q == nil || q.config.Limit <= 0 {
		return &QuotaResult{Allowed: true, Remaining: -1}, nil
	}
	key := fmt.Sprintf("quota:%s:messages", userID)
	return q.checkLimit(ctx, key, q.config.Limit, q.config.Window)
}

// checkLimit performs the atomic increment-and-check
func (q *MessageQuota) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*QuotaResult, error) {
	// Use Lua script for atomic increment and check
	script := goredis.NewScript(`
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])

		local current = redis.call('GET', key)
		if current == false then
			current = 0
		else
			current = tonumber(current)
		end

		local ttl = redis.call('TTL', key)
		if ttl < 0 then
			ttl = window
		end

		if current < limit then
			redis.call('INCR', key)
			if ttl == window then
				redis.call('EXPIRE', key, window)
			end
			return {1, limit - current - 1, ttl}
		else
			return {0, 0, ttl}
		end
	`)

	result, err := script.Run(ctx, q.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("quota check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected quota result format")
	}

	allowed := resultSlice[0].(int64) == 1
	remaining := int(resultSlice[1].(int64))
	resetIn := time.Duration(resultSlice[2].(int64)) * time.Second

	return &QuotaResult{
		Allowed:   allowed,
		Remaining: remaining,
		ResetIn:   resetIn,
		Limit:     limit,
	}, nil
}

// Status returns the current quota status without consuming
func (q *MessageQuota) Status(ctx context.Context, userID string) (*QuotaResult, error) {
	if q == nil || q.config.Limit <= 0 {
		return &QuotaResult{Allowed: true, Remaining: -1}, nil
	}
	key := fmt.Sprintf("quota:%s:messages", userID)

	pipe := q.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	_, _ = pipe.Exec(ctx)

	current := 0
	if val, err := getCmd.Int(); err == nil {
		current = val
	}

	ttl := q.config.Window
	if ttlVal := ttlCmd.Val(); ttlVal > 0 {
		ttl = ttlVal
	}

	return &QuotaResult{
		Allowed:   current < q.config.Limit,
		Remaining: q.config.Limit - current,
		ResetIn:   ttl,
		Limit:     q.config.Limit,
	}, nil
}
