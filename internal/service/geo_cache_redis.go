package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sandeepkv93/account-onboarding-service/internal/security"
)

type RedisGeoCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisGeoCacheStore(client redis.UniversalClient, prefix string) *RedisGeoCacheStore {
	if prefix == "" {
		prefix = "geo"
	}
	return &RedisGeoCacheStore{client: client, prefix: prefix}
}

func (s *RedisGeoCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	value, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisGeoCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.dataKey(key), value, ttl).Err()
}

// IPs are hashed so raw addresses do not appear in the keyspace.
func (s *RedisGeoCacheStore) dataKey(key string) string {
	return fmt.Sprintf("%s:data:%s", s.prefix, security.HashToken(key))
}
