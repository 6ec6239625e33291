package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store 带键前缀的Redis存储，用于会话吊销、权限缓存和导入进度推送
type Store struct {
	client *redis.Client
	prefix string
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewStore 创建Redis存储实例
func NewStore(config *Config) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})
	return NewStoreWithClient(client, config.Prefix)
}

// NewStoreWithClient 使用已有客户端创建存储
func NewStoreWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "thrivex"
	}
	return &Store{client: client, prefix: prefix}
}

// Close 关闭Redis连接
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping 测试Redis连接
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Key 拼接带前缀的键名
func (s *Store) Key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

// Set 写入字符串，ttl 为 0 表示不过期
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.Key(key), value, ttl).Err()
}

// Exists 键是否存在
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.Key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetJSON 序列化后写入
func (s *Store) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化缓存失败: %v", err)
	}
	return s.client.Set(ctx, s.Key(key), data, ttl).Err()
}

// GetJSON 读取并反序列化，键不存在时返回 false
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("反序列化缓存失败: %v", err)
	}
	return true, nil
}

// Delete 删除键
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.Key(k))
	}
	return s.client.Del(ctx, full...).Err()
}

// Publish 发布消息到指定频道
func (s *Store) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %v", err)
	}
	if err := s.client.Publish(ctx, s.Key("channel", channel), data).Err(); err != nil {
		return fmt.Errorf("发布消息失败: %v", err)
	}
	return nil
}

// Subscribe 订阅指定频道
func (s *Store) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return s.client.Subscribe(ctx, s.Key("channel", channel))
}

// PSubscribe 按模式订阅频道，pattern 中可使用 *
func (s *Store) PSubscribe(ctx context.Context, pattern string) *redis.PubSub {
	return s.client.PSubscribe(ctx, s.Key("channel", pattern))
}

// ChannelName 去掉前缀，返回发布时使用的频道名
func (s *Store) ChannelName(key string) string {
	return strings.TrimPrefix(key, s.Key("channel")+":")
}
