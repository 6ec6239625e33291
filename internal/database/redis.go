package database

import (
	"sync"

	"thrivex/pkg/cache"
	"thrivex/pkg/config"
)

var (
	redisStoreInstance *cache.Store
	redisStoreOnce     sync.Once
)

// GetRedisStore 获取Redis存储的单例实例
func GetRedisStore() *cache.Store {
	redisStoreOnce.Do(func() {
		cfg := config.GetConfig()
		redisStoreInstance = cache.NewStore(&cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return redisStoreInstance
}

// CloseRedisStore 关闭Redis连接
func CloseRedisStore() error {
	if redisStoreInstance != nil {
		return redisStoreInstance.Close()
	}
	return nil
}
