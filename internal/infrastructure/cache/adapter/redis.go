package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"go-twitarr/internal/infrastructure/cache/port"
)

// releaseScript deletes the lease key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore satisfies port.Store using go-redis v9. ID lists are stored as
// JSON arrays of UUID strings.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *slog.Logger
}

// NewRedisStore connects to the Redis server at url and verifies it with a ping.
func NewRedisStore(url string, keyPrefix string, logger *slog.Logger) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("redis: url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	return newRedisStore(redis.NewClient(opt), keyPrefix, logger)
}

func newRedisStore(c *redis.Client, keyPrefix string, logger *slog.Logger) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client:    c,
		keyPrefix: keyPrefix,
		logger:    logger.With("component", "redis-store"),
	}, nil
}

var _ port.Store = (*RedisStore)(nil)

func (r *RedisStore) key(k string) string {
	if r.keyPrefix == "" {
		return k
	}
	return r.keyPrefix + ":" + k
}

func (r *RedisStore) GetIDs(ctx context.Context, key string) ([]uuid.UUID, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return ids, nil
}

func (r *RedisStore) SetIDs(ctx context.Context, key string, ids []uuid.UUID) error {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// AcquireLease uses SET NX PX so the key and its expiry are written atomically.
func (r *RedisStore) AcquireLease(ctx context.Context, name string, ttl time.Duration) (port.Lease, bool, error) {
	lease := port.Lease{Name: name, Token: uuid.NewString()}
	ok, err := r.client.SetNX(ctx, r.key(name), lease.Token, ttl).Result()
	if err != nil {
		return port.Lease{}, false, fmt.Errorf("redis: acquire lease %s: %w", name, err)
	}
	if !ok {
		return port.Lease{}, false, nil
	}
	return lease, true, nil
}

func (r *RedisStore) ReleaseLease(ctx context.Context, lease port.Lease) error {
	n, err := releaseScript.Run(ctx, r.client, []string{r.key(lease.Name)}, lease.Token).Int()
	if err != nil {
		return fmt.Errorf("redis: release lease %s: %w", lease.Name, err)
	}
	if n == 0 {
		r.logger.Warn("lease expired before release", "lease", lease.Name)
		return port.ErrLeaseLost
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
