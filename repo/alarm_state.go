package repo

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// AlarmStateRepo remembers raised alarms between runs so that a clear trap
// can be sent once the condition is gone.
type AlarmStateRepo interface {
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Scan returns the keys matching a redis glob pattern with their values.
	Scan(ctx context.Context, match string) (map[string]string, error)
}

type alarmStateRepo struct {
	rdb *redis.Client
}

func NewAlarmStateRepo(rdb *redis.Client) AlarmStateRepo {
	return &alarmStateRepo{rdb: rdb}
}

func (r *alarmStateRepo) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}

func (r *alarmStateRepo) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

func (r *alarmStateRepo) Scan(ctx context.Context, match string) (map[string]string, error) {
	var keys []string
	var cursor uint64
	for {
		scanKeys, next, err := r.rdb.Scan(ctx, cursor, match, 10).Result()
		if err != nil {
			return nil, err
		}

		keys = append(keys, scanKeys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	states := make(map[string]string, len(keys))
	for _, key := range keys {
		val, err := r.rdb.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		states[key] = val
	}

	return states, nil
}
