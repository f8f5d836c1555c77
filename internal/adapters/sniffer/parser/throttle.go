package parser

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// ShardedCache remembers when a key was last let through.
type ShardedCache struct {
	shards [shardCount]shard
	now    func() time.Time
}

type shard struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func newShardedCache() *ShardedCache {
	sc := &ShardedCache{now: time.Now}
	for i := 0; i < shardCount; i++ {
		sc.shards[i].items = make(map[string]time.Time)
	}
	return sc
}

func (sc *ShardedCache) getShard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &sc.shards[h.Sum32()%shardCount]
}

// shouldThrottle reports whether key was let through less than window ago.
// Keys that pass are stamped with the current time.
func (sc *ShardedCache) shouldThrottle(key string, window time.Duration) bool {
	s := sc.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := sc.now()
	if last, ok := s.items[key]; ok && now.Sub(last) < window {
		return true
	}
	s.items[key] = now
	return false
}

// prune drops keys older than window.
func (sc *ShardedCache) prune(window time.Duration) {
	now := sc.now()
	for i := range sc.shards {
		s := &sc.shards[i]
		s.mu.Lock()
		for k, last := range s.items {
			if now.Sub(last) >= window {
				delete(s.items, k)
			}
		}
		s.mu.Unlock()
	}
}
