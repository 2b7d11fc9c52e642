package cache

import (
	"context"
	"fmt"
	"time"

	"MoisHub/db"

	"github.com/go-redis/redis/v8"
)

// 公共曲目列表的缓存，避免每次请求都扫描 tracks 表
// 审核状态变化或删除曲目时整体失效
const (
	feedKeyPrefix = "feed:approved:"
	feedTTL       = 60 * time.Second
)

// FeedKey 根据分页参数和标签过滤生成缓存键
func FeedKey(page, pageSize int, tag string) string {
	return fmt.Sprintf("%s%d:%d:%s", feedKeyPrefix, page, pageSize, tag)
}

// GetFeed 返回缓存的列表响应(JSON)，未命中返回 redis.Nil
func GetFeed(ctx context.Context, page, pageSize int, tag string) ([]byte, error) {
	if db.RedisClient == nil {
		return nil, redis.Nil
	}
	return db.RedisClient.Get(ctx, FeedKey(page, pageSize, tag)).Bytes()
}

// SetFeed 缓存列表响应
func SetFeed(ctx context.Context, page, pageSize int, tag string, payload []byte) error {
	if db.RedisClient == nil {
		return nil
	}
	return db.RedisClient.Set(ctx, FeedKey(page, pageSize, tag), payload, feedTTL).Err()
}

// InvalidateFeed 删除所有列表缓存
// 审核通过/拒绝、曲目删除后调用
func InvalidateFeed(ctx context.Context) error {
	if db.RedisClient == nil {
		return nil
	}

	iter := db.RedisClient.Scan(ctx, 0, feedKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan feed cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	return db.RedisClient.Del(ctx, keys...).Err()
}

// IsCacheMiss 判断错误是否为缓存未命中
func IsCacheMiss(err error) bool {
	return err == redis.Nil
}
