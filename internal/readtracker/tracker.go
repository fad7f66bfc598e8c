// Package readtracker derives unread counts from the monotonic last_read_at
// cursor on each membership. Counts are cached in Redis behind a per-group
// version key: bumping the version on new messages invalidates every cached
// count for the group without scanning member keys.
package readtracker

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"club-chat-service/internal/observability"
)

// CountSource computes the authoritative unread count from storage.
type CountSource interface {
	UnreadCount(ctx context.Context, groupID, memberID int64) (int64, error)
}

const countTTL = 5 * time.Minute

// Tracker serves unread counts, caching them when a Redis client is
// configured. A nil client degrades to straight storage reads.
type Tracker struct {
	source CountSource
	cache  *redis.Client
}

// New constructs a Tracker. cache may be nil.
func New(source CountSource, cache *redis.Client) *Tracker {
	return &Tracker{source: source, cache: cache}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// UnreadCount returns the member's unread count for a group, preferring the
// cache. Cache failures fall through to storage.
func (t *Tracker) UnreadCount(ctx context.Context, groupID, memberID int64) (int64, error) {
	if t.cache == nil {
		return t.source.UnreadCount(ctx, groupID, memberID)
	}

	key := t.countKey(ctx, groupID, memberID)
	if cached, err := t.cache.Get(ctx, key).Result(); err == nil {
		if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
			observability.IncUnreadCache("hit")
			return count, nil
		}
	} else if err != redis.Nil {
		log.Printf("unread cache read failed: %v", err)
	}
	observability.IncUnreadCache("miss")

	count, err := t.source.UnreadCount(ctx, groupID, memberID)
	if err != nil {
		return 0, err
	}
	if err := t.cache.Set(ctx, key, strconv.FormatInt(count, 10), countTTL).Err(); err != nil {
		log.Printf("unread cache write failed: %v", err)
	}
	return count, nil
}

// BumpGroup invalidates every cached count for a group. Called after a
// message lands in or leaves the group log.
func (t *Tracker) BumpGroup(ctx context.Context, groupID int64) {
	if t.cache == nil {
		return
	}
	if err := t.cache.Incr(ctx, versionKey(groupID)).Err(); err != nil {
		log.Printf("unread cache bump failed: %v", err)
	}
}

// ForgetMember drops one member's cached count. Called after markRead moves
// the cursor.
func (t *Tracker) ForgetMember(ctx context.Context, groupID, memberID int64) {
	if t.cache == nil {
		return
	}
	if err := t.cache.Del(ctx, t.countKey(ctx, groupID, memberID)).Err(); err != nil {
		log.Printf("unread cache forget failed: %v", err)
	}
}

func (t *Tracker) countKey(ctx context.Context, groupID, memberID int64) string {
	version, err := t.cache.Get(ctx, versionKey(groupID)).Int64()
	if err != nil && err != redis.Nil {
		log.Printf("unread cache version read failed: %v", err)
	}
	return fmt.Sprintf("chat:unread:%d:%d:v%d", groupID, memberID, version)
}

func versionKey(groupID int64) string {
	return fmt.Sprintf("chat:unread:ver:%d", groupID)
}
