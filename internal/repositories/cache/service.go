package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// resetCodeTTL bounds how long a password reset code stays redeemable.
const resetCodeTTL = 15 * time.Minute

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

func resetKey(email string) string {
	return "reset:" + email
}

// StoreResetCode stores a password reset code for the email. The code expires
// after fifteen minutes; storing again overwrites the previous code.
func (s *CacheService) StoreResetCode(ctx context.Context, email, code string) error {
	return s.client.Set(ctx, resetKey(email), code, resetCodeTTL).Err()
}

// CheckResetCode reports whether the code matches the live one for the email.
// The code is not consumed; call ConsumeResetCode after a successful reset.
func (s *CacheService) CheckResetCode(ctx context.Context, email, code string) (bool, error) {
	stored, err := s.client.Get(ctx, resetKey(email)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to check reset code: %w", err)
	}
	return stored == code, nil
}

func (s *CacheService) ConsumeResetCode(ctx context.Context, email string) error {
	return s.client.Del(ctx, resetKey(email)).Err()
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (s *CacheService) Close() error {
	return s.client.Close()
}
