package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements the Repository interface using redis
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRepository creates a new redis repository. Keys are "<prefix><clientID>:<key>".
func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) redisKey(clientID, key string) string {
	return r.prefix + clientID + ":" + key
}

func (r *RedisRepository) GetItem(ctx context.Context, clientID, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.redisKey(clientID, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisRepository) SetItem(ctx context.Context, clientID, key, value string) error {
	// Local storage never expires
	return r.client.Set(ctx, r.redisKey(clientID, key), value, 0).Err()
}

func (r *RedisRepository) RemoveItem(ctx context.Context, clientID, key string) error {
	return r.client.Del(ctx, r.redisKey(clientID, key)).Err()
}
