package intervention

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BaSui01/browserpilot/types"
)

// RedisStore keeps intervention requests in Redis so several server
// instances can share them. Requests are stored as JSON values with a
// sorted-set index per status and an index over all requests.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisStoreConfig configures a RedisStore.
type RedisStoreConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// TTL bounds how long resolved requests stay readable. Zero keeps
	// them forever.
	TTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisStoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "browserpilot:intervention:"
	}
	return &RedisStore{client: client, keyPrefix: prefix, ttl: cfg.TTL}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "browserpilot:intervention:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

// Ping checks store health.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) dataKey(id string) string { return s.keyPrefix + "data:" + id }

func (s *RedisStore) statusKey(status Status) string {
	return s.keyPrefix + "status:" + string(status)
}

func (s *RedisStore) allKey() string { return s.keyPrefix + "all" }

func (s *RedisStore) write(ctx context.Context, req *Request, prevStatus Status) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal intervention request: %w", err)
	}

	score := float64(req.CreatedAt.UnixNano())
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.dataKey(req.ID), data, s.ttl)
	if prevStatus != "" && prevStatus != req.Status {
		pipe.ZRem(ctx, s.statusKey(prevStatus), req.ID)
	}
	pipe.ZAdd(ctx, s.statusKey(req.Status), redis.Z{Score: score, Member: req.ID})
	pipe.ZAdd(ctx, s.allKey(), redis.Z{Score: score, Member: req.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Save(ctx context.Context, req *Request) error {
	return s.write(ctx, req, "")
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Request, error) {
	data, err := s.client.Get(ctx, s.dataKey(id)).Bytes()
	if err == redis.Nil {
		return nil, types.NewError(types.ErrInterventionNotFound,
			fmt.Sprintf("intervention request not found: %s", id))
	}
	if err != nil {
		return nil, err
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("unmarshal intervention request: %w", err)
	}
	return &req, nil
}

func (s *RedisStore) List(ctx context.Context, status Status) ([]*Request, error) {
	key := s.allKey()
	if status != "" {
		key = s.statusKey(status)
	}

	// Newest first.
	ids, err := s.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Request, 0, len(ids))
	for _, id := range ids {
		req, err := s.Load(ctx, id)
		if err != nil {
			if types.GetErrorCode(err) == types.ErrInterventionNotFound {
				// Expired value with a lingering index entry.
				continue
			}
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *RedisStore) Update(ctx context.Context, req *Request) error {
	prev, err := s.Load(ctx, req.ID)
	if err != nil {
		return err
	}
	return s.write(ctx, req, prev.Status)
}
