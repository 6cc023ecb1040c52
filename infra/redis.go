package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/HavvokLab/autarco/config"
	"github.com/go-redis/redis/v8"
)

// NewRedis connects and pings; the alarm state lives here between runs.
func NewRedis(conf config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}
