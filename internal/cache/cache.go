package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zhouzirui/safespeak/backend/internal/analysis/toxicity"
)

const keyPrefix = "safespeak:analysis:"

// AnalysisCache 按消息文本缓存分类结果
type AnalysisCache interface {
	Get(ctx context.Context, text string) (toxicity.Result, bool, error)
	Set(ctx context.Context, text string, result toxicity.Result) error
}

// Key 计算消息的缓存键，原文不会写入 Redis
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// RedisCache 以 JSON 形式保存结果，TTL 固定
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache 基于已连接的客户端创建缓存
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Connect 解析 redis:// 地址并确认服务可用
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, text string) (toxicity.Result, bool, error) {
	raw, err := c.client.Get(ctx, Key(text)).Result()
	if errors.Is(err, redis.Nil) {
		return toxicity.Result{}, false, nil
	}
	if err != nil {
		return toxicity.Result{}, false, fmt.Errorf("redis get: %w", err)
	}

	var result toxicity.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return toxicity.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, text string, result toxicity.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, Key(text), string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Noop 关闭缓存
type Noop struct{}

func (Noop) Get(context.Context, string) (toxicity.Result, bool, error) {
	return toxicity.Result{}, false, nil
}

func (Noop) Set(context.Context, string, toxicity.Result) error { return nil }
