package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tmmedia/internal/config"
)

// 常用 key 模式
const (
	ProjectCacheKeyPrefix = "tmmedia:project:"
	BatchLockKeyPrefix    = "tmmedia:batch:"

	DefaultProjectCacheTTL = 10 * time.Minute
	DefaultBatchLockTTL    = 2 * time.Hour
)

// ErrCacheMiss 缓存不存在
var ErrCacheMiss = errors.New("cache miss")

// releaseScript 仅当锁仍由自己持有时才删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCache Redis 缓存封装
// 说明：项目快照缓存读多写少；批次锁保证同一项目任意时刻只有一个生成批次（多实例部署时同样生效）
type RedisCache struct {
	client   *redis.Client
	cacheTTL time.Duration
	lockTTL  time.Duration
}

// NewRedisCache 创建 Redis 缓存客户端
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisCacheWithClient(client, cfg.CacheTTL, cfg.LockTTL), nil
}

// NewRedisCacheWithClient 使用已有客户端创建缓存
func NewRedisCacheWithClient(client *redis.Client, cacheTTL, lockTTL time.Duration) *RedisCache {
	if cacheTTL <= 0 {
		cacheTTL = DefaultProjectCacheTTL
	}
	if lockTTL <= 0 {
		lockTTL = DefaultBatchLockTTL
	}
	return &RedisCache{client: client, cacheTTL: cacheTTL, lockTTL: lockTTL}
}

// Set 设置缓存
func (c *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存，不存在时返回 ErrCacheMiss
func (c *RedisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除缓存
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// Ping 检查连接（就绪探针使用）
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetProject 读取项目快照
func (c *RedisCache) GetProject(ctx context.Context, projectID string, dest any) error {
	return c.Get(ctx, ProjectCacheKey(projectID), dest)
}

// SetProject 写入项目快照
func (c *RedisCache) SetProject(ctx context.Context, projectID string, project any) error {
	return c.Set(ctx, ProjectCacheKey(projectID), project, c.cacheTTL)
}

// DeleteProject 删除项目快照
func (c *RedisCache) DeleteProject(ctx context.Context, projectID string) error {
	return c.Delete(ctx, ProjectCacheKey(projectID))
}

// AcquireBatchLock 尝试获取项目的批次锁，owner 用于释放时校验
func (c *RedisCache) AcquireBatchLock(ctx context.Context, projectID, owner string) (bool, error) {
	ok, err := c.client.SetNX(ctx, BatchLockKey(projectID), owner, c.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire batch lock: %w", err)
	}
	return ok, nil
}

// ReleaseBatchLock 释放批次锁
func (c *RedisCache) ReleaseBatchLock(ctx context.Context, projectID, owner string) error {
	if err := releaseScript.Run(ctx, c.client, []string{BatchLockKey(projectID)}, owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release batch lock: %w", err)
	}
	return nil
}

// ProjectCacheKey 生成项目缓存 key
func ProjectCacheKey(id string) string {
	return ProjectCacheKeyPrefix + id
}

// BatchLockKey 生成批次锁 key
func BatchLockKey(id string) string {
	return BatchLockKeyPrefix + id
}
