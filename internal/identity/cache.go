package identity

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/approval-desk/internal/domain"
	"github.com/xela07ax/approval-desk/internal/infra"
	"go.uber.org/zap"
)

// Cache — абстракция кэша личностей: get/set с индивидуальным TTL записи.
// Шлюзу все равно, память это или распределенный Redis.
type Cache interface {
	Get(ctx context.Context, userID string) (domain.UserInfo, bool)
	Set(ctx context.Context, info domain.UserInfo, ttl time.Duration)
}

// RedisCache держит записи в общем Redis, чтобы кэш переживал рестарты
// и разделялся между инстансами. Отказ Redis — это промах, а не ошибка:
// резолвинг личностей деградирует до живых вызовов, но не падает.
type RedisCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisCache(rdb *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		rdb:    rdb,
		logger: logger.Named("identity-cache"),
	}
}

func (c *RedisCache) Get(ctx context.Context, userID string) (domain.UserInfo, bool) {
	raw, err := c.rdb.Get(ctx, infra.GetUserInfoKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return domain.UserInfo{}, false
	}

	var info domain.UserInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		c.logger.Warn("cache entry corrupted", zap.String("user_id", userID), zap.Error(err))
		return domain.UserInfo{}, false
	}
	return info, true
}

func (c *RedisCache) Set(ctx context.Context, info domain.UserInfo, ttl time.Duration) {
	raw, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, infra.GetUserInfoKey(info.UserID), raw, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("user_id", info.UserID), zap.Error(err))
	}
}

// MemoryCache — потокобезопасный in-process кэш на мапе.
// Запасной вариант для окружений без Redis и для тестов.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	info      domain.UserInfo
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, userID string) (domain.UserInfo, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return domain.UserInfo{}, false
	}
	return entry.info, true
}

func (c *MemoryCache) Set(_ context.Context, info domain.UserInfo, ttl time.Duration) {
	c.mu.Lock()
	c.entries[info.UserID] = memoryEntry{
		info:      info,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}
