package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Config contains shared cache tier connection settings. An empty Addr
// leaves the shared tier disabled; the cache then runs process-local only.
type Config struct {
	Addr        string `env:"REDIS_ADDR"`
	Password    string `env:"REDIS_PASSWORD"`
	DB          int    `env:"REDIS_DB"           envDefault:"0"`
	DialTimeout int    `env:"REDIS_DIAL_TIMEOUT" envDefault:"5"`
	PoolSize    int    `env:"REDIS_POOL_SIZE"    envDefault:"10"`
}

// Enabled reports whether a shared tier is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.Addr != ""
}

// NewClient builds a Redis client from the config.
func NewClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		PoolSize:    cfg.PoolSize,
	})
}
