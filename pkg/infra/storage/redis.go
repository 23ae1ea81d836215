package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sokoide/shopfront/pkg/domain"
)

// RedisCredentialStore keeps the credential under a single key, for
// terminals that share a session (kiosks behind one counter).
type RedisCredentialStore struct {
	client *redis.Client
	key    string
}

func NewRedisCredentialStore(client *redis.Client, key string) *RedisCredentialStore {
	return &RedisCredentialStore{
		client: client,
		key:    key,
	}
}

func (r *RedisCredentialStore) Load(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNoCredential
		}
		return "", err
	}
	if token == "" {
		return "", domain.ErrNoCredential
	}
	return token, nil
}

func (r *RedisCredentialStore) Save(ctx context.Context, token string) error {
	return r.client.Set(ctx, r.key, token, 0).Err()
}

func (r *RedisCredentialStore) Delete(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
