package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ErrKeyNotExist is returned when a key does not exist.
var ErrKeyNotExist = redis.Nil

// RedisServiceInterface is the capability consumed by callers.
type RedisServiceInterface interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key string, value string, ttl time.Duration) error
	DelValue(ctx context.Context, key string) error
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler func(string)) error
	Close() error
}

// RedisService wraps a redis client for caching and pub/sub.
type RedisService struct {
	client *redis.Client
}

// NewRedisService connects to redis and verifies the connection.
func NewRedisService(config *RedisConfig) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

// GetValue retrieves a string value by key.
func (s *RedisService) GetValue(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

// SetValue stores a string value with a TTL.
func (s *RedisService) SetValue(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// DelValue removes a key.
func (s *RedisService) DelValue(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Publish sends a message on a channel. Non-string payloads are JSON
// encoded.
func (s *RedisService) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, ok := message.(string)
	if !ok {
		encoded, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		payload = string(encoded)
	}
	return s.client.Publish(ctx, channel, payload).Err()
}

// Subscribe listens on a channel and invokes handler for each message.
// Blocks until ctx is cancelled.
func (s *RedisService) Subscribe(ctx context.Context, channel string, handler func(string)) error {
	sub := s.client.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler(msg.Payload)
		}
	}
}

// Close releases the client connection.
func (s *RedisService) Close() error {
	return s.client.Close()
}
