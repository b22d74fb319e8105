package repositories

//go:generate mockgen -source=user_cache.go -destination=user_cache_mock.go -package=repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-user-auth/internal/logger"
	"github.com/sbilibin2017/gw-user-auth/internal/models"
)

// UserCacheRepository caches user records by id in Redis.
// Cached values never contain the password hash.
type UserCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration duration for cached users
}

// NewUserCacheRepository creates a new cache repository with the given TTL
func NewUserCacheRepository(client *redis.Client, expiration time.Duration) *UserCacheRepository {
	return &UserCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func userKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// Get returns the cached user, or (nil, nil) on a cache miss.
func (r *UserCacheRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	key := userKey(id)

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Log.Debugw("cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var user models.User
	if err := json.Unmarshal(val, &user); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	logger.Log.Debugw("cache hit", "key", key)
	return &user, nil
}

// Set caches the user with the repository TTL.
func (r *UserCacheRepository) Set(ctx context.Context, user *models.User) error {
	key := userKey(user.ID)

	val, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	err = r.client.Set(ctx, key, val, r.exp).Err()
	logger.Log.Debugw("cache set", "key", key, "ttl", r.exp, "error", err)
	return err
}

// UserReader is the lookup side of the user store.
type UserReader interface {
	GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// UserCache stores user records by id.
type UserCache interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	Set(ctx context.Context, user *models.User) error
}

// CachedUserReadRepository serves GetByID through a read-through cache.
// Cache failures are logged and the lookup falls back to the underlying reader.
type CachedUserReadRepository struct {
	reader UserReader
	cache  UserCache
}

func NewCachedUserReadRepository(reader UserReader, cache UserCache) *CachedUserReadRepository {
	return &CachedUserReadRepository{reader: reader, cache: cache}
}

func (r *CachedUserReadRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	return r.reader.GetByEmailOrUsername(ctx, email, username)
}

func (r *CachedUserReadRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.reader.GetByEmail(ctx, email)
}

func (r *CachedUserReadRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	cached, err := r.cache.Get(ctx, id)
	if err != nil {
		logger.Log.Errorw("user cache read failed", "id", id, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	user, err := r.reader.GetByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}

	if err := r.cache.Set(ctx, user); err != nil {
		logger.Log.Errorw("user cache write failed", "id", id, "error", err)
	}
	return user, nil
}
