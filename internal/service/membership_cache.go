package service

import (
	"fmt"
	"strconv"
	"time"

	"chatster/backend/pkg/cache"
	"chatster/backend/shared/redis"
)

// MemberCache is an optional read-through cache for conversation member
// sets. A miss is never an error; callers fall back to the store.
type MemberCache interface {
	Members(conversationID uint) ([]uint, bool)
	Store(conversationID uint, memberIDs []uint)
	Invalidate(conversationID uint)
}

func memberKey(conversationID uint) string {
	return fmt.Sprintf("conversation:members:%d", conversationID)
}

// MemoryMemberCache keeps member sets in the process-local TTL cache.
type MemoryMemberCache struct {
	cache *cache.Cache
}

func NewMemoryMemberCache(ttl, cleanupInterval time.Duration, maxItems int) *MemoryMemberCache {
	return &MemoryMemberCache{cache: cache.NewCache(ttl, cleanupInterval, maxItems)}
}

func (m *MemoryMemberCache) Members(conversationID uint) ([]uint, bool) {
	v, ok := m.cache.Get(memberKey(conversationID))
	if !ok {
		return nil, false
	}
	ids, ok := v.([]uint)
	return ids, ok
}

func (m *MemoryMemberCache) Store(conversationID uint, memberIDs []uint) {
	m.cache.Set(memberKey(conversationID), memberIDs)
}

func (m *MemoryMemberCache) Invalidate(conversationID uint) {
	m.cache.Delete(memberKey(conversationID))
}

// RedisMemberCache keeps member sets in Redis so several API workers can
// share them. Empty sets are not cached; SMembers cannot distinguish an
// empty set from a missing key.
type RedisMemberCache struct {
	client *redis.RedisClient
	ttl    time.Duration
}

func NewRedisMemberCache(client *redis.RedisClient, ttl time.Duration) *RedisMemberCache {
	return &RedisMemberCache{client: client, ttl: ttl}
}

func (r *RedisMemberCache) Members(conversationID uint) ([]uint, bool) {
	raw, err := r.client.SetMembers(memberKey(conversationID))
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	ids := make([]uint, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, uint(id))
	}
	return ids, true
}

func (r *RedisMemberCache) Store(conversationID uint, memberIDs []uint) {
	if len(memberIDs) == 0 {
		return
	}
	members := make([]interface{}, 0, len(memberIDs))
	for _, id := range memberIDs {
		members = append(members, strconv.FormatUint(uint64(id), 10))
	}
	// Best effort; the store remains the source of truth.
	_ = r.client.SetAdd(memberKey(conversationID), members, r.ttl)
}

func (r *RedisMemberCache) Invalidate(conversationID uint) {
	_ = r.client.Del(memberKey(conversationID))
}
