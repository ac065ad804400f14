package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trade-client/models"
)

const (
	fieldAccessToken  = "accessToken"
	fieldRefreshToken = "refreshToken"
	fieldUser         = "user"
)

// RedisStore persists the session so the client survives a restart. The
// whole session lives in one hash and is deleted with a single DEL, which
// keeps logout and terminal auth failure atomic.
type RedisStore struct {
	redis *redis.Client
	key   string
}

func NewRedisStore(client *redis.Client, sessionKey string) *RedisStore {
	if sessionKey == "" {
		sessionKey = "trade:session"
	}
	return &RedisStore{redis: client, key: sessionKey}
}

func (s *RedisStore) Credential(ctx context.Context) (models.Credential, error) {
	fields, err := s.redis.HGetAll(ctx, s.key).Result()
	if err != nil {
		return models.Credential{}, fmt.Errorf("RedisStore.Credential: hgetall: %w", err)
	}

	return models.Credential{
		AccessToken:  fields[fieldAccessToken],
		RefreshToken: fields[fieldRefreshToken],
	}, nil
}

func (s *RedisStore) User(ctx context.Context) (*models.User, error) {
	raw, err := s.redis.HGet(ctx, s.key, fieldUser).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("RedisStore.User: hget: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("RedisStore.User: json.Unmarshal: %w", err)
	}
	return &user, nil
}

func (s *RedisStore) Save(ctx context.Context, cred models.Credential, user *models.User) error {
	fields := []any{
		fieldAccessToken, cred.AccessToken,
		fieldRefreshToken, cred.RefreshToken,
	}

	if user != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("RedisStore.Save: json.Marshal: %w", err)
		}
		fields = append(fields, fieldUser, string(raw))
	}

	if err := s.redis.HSet(ctx, s.key, fields...).Err(); err != nil {
		return fmt.Errorf("RedisStore.Save: hset: %w", err)
	}
	return nil
}

func (s *RedisStore) SetAccessToken(ctx context.Context, token string) error {
	if err := s.redis.HSet(ctx, s.key, fieldAccessToken, token).Err(); err != nil {
		return fmt.Errorf("RedisStore.SetAccessToken: hset: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("RedisStore.Clear: del: %w", err)
	}
	return nil
}
