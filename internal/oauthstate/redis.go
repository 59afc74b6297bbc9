package oauthstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending flows in Redis so multiple server replicas share
// the same consent state.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func stateKey(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}

// Save stores a pending flow under its state token.
func (s *RedisStore) Save(ctx context.Context, flow PendingFlow, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	payload, err := json.Marshal(flow)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(flow.State), payload, ttl).Err()
}

// Consume retrieves and deletes a pending flow.
func (s *RedisStore) Consume(ctx context.Context, state string) (PendingFlow, error) {
	val, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if err == redis.Nil {
		return PendingFlow{}, ErrStateNotFound
	}
	if err != nil {
		return PendingFlow{}, err
	}

	var flow PendingFlow
	if err := json.Unmarshal([]byte(val), &flow); err != nil {
		return PendingFlow{}, err
	}
	return flow, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
