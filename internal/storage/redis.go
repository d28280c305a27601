package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andyleap/finchconnect/internal/models"
	"github.com/redis/go-redis/v9"
)

type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{
		client: client,
	}
}

func (r *RedisStorage) SetConnectionToken(ctx context.Context, token string) error {
	data, err := json.Marshal(newConnection(token))
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	if err := r.client.Set(ctx, connectionKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}

	return nil
}

func (r *RedisStorage) GetConnection(ctx context.Context) (*models.Connection, error) {
	data, err := r.client.Get(ctx, connectionKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	var conn models.Connection
	if err := json.Unmarshal([]byte(data), &conn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}

	return &conn, nil
}
