package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "token:"

// RedisRepository keeps each record as a JSON value under token:<string>.
// Keys carry a Redis TTL equal to the remaining lifetime of the record, so
// Redis itself drops expired tokens.
type RedisRepository struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRedisRepository(rdb redis.UniversalClient) *RedisRepository {
	return &RedisRepository{rdb: rdb, now: time.Now}
}

func redisKey(token string) string {
	return redisKeyPrefix + token
}

func (r *RedisRepository) Create(ctx context.Context, token *models.Token) error {
	ttl := token.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("token already expired: %w", common.ErrorValidation)
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %v: %w", err, common.ErrorStorageFailure)
	}

	ok, err := r.rdb.SetNX(ctx, redisKey(token.Token), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis error: %v: %w", err, common.ErrorStorageFailure)
	}
	if !ok {
		return fmt.Errorf("duplicate token: %w", common.ErrorConflict)
	}
	return nil
}

func (r *RedisRepository) FindByToken(ctx context.Context, token string) (*models.Token, error) {
	payload, err := r.rdb.Get(ctx, redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %v: %w", err, common.ErrorStorageFailure)
	}

	t := &models.Token{}
	if err := json.Unmarshal(payload, t); err != nil {
		return nil, fmt.Errorf("decoding token: %v: %w", err, common.ErrorStorageFailure)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *RedisRepository) Delete(ctx context.Context, token string) error {
	n, err := r.rdb.Del(ctx, redisKey(token)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %v: %w", err, common.ErrorStorageFailure)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
