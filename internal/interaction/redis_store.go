package interaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 100

// RedisStore keeps one viewer's Flags in a single Redis hash, one field per node.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisStore scopes a store to viewerID. Idle state expires after ttl.
func NewRedisStore(client *redis.Client, viewerID string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		client: client,
		key:    "interaction:" + viewerID,
		ttl:    ttl,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Flags, error) {
	raw, err := s.client.HGet(ctx, s.key, key).Result()
	if err == redis.Nil {
		return Flags{}, nil
	}
	if err != nil {
		return Flags{}, fmt.Errorf("get flags: %w", err)
	}
	var f Flags
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Flags{}, fmt.Errorf("unmarshal flags: %w", err)
	}
	return f, nil
}

// Update runs fn under optimistic locking: the hash is WATCHed while fn reads and
// the write is retried if another writer got there first. fn may run more than once.
func (s *RedisStore) Update(ctx context.Context, key string, fn func(*Flags)) error {
	txf := func(tx *redis.Tx) error {
		var f Flags
		raw, err := tx.HGet(ctx, s.key, key).Result()
		switch {
		case err == redis.Nil:
		case err != nil:
			return fmt.Errorf("get flags: %w", err)
		default:
			if err := json.Unmarshal([]byte(raw), &f); err != nil {
				return fmt.Errorf("unmarshal flags: %w", err)
			}
		}
		fn(&f)

		var data []byte
		if f != (Flags{}) {
			if data, err = json.Marshal(f); err != nil {
				return fmt.Errorf("marshal flags: %w", err)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if data == nil {
				pipe.HDel(ctx, s.key, key)
				return nil
			}
			pipe.HSet(ctx, s.key, key, data)
			pipe.Expire(ctx, s.key, s.ttl)
			pipe.Expire(ctx, s.rootKey(), s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("save flags: %w", err)
		}
	}
	return fmt.Errorf("save flags: %s contended after %d attempts", key, maxUpdateRetries)
}

func (s *RedisStore) Snapshot(ctx context.Context) (map[string]Flags, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}
	out := make(map[string]Flags, len(all))
	for k, raw := range all {
		var f Flags
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			continue
		}
		out[k] = f
	}
	return out, nil
}

func (s *RedisStore) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key, s.rootKey()).Err(); err != nil {
		return fmt.Errorf("reset flags: %w", err)
	}
	return nil
}

// Bind records root next to the viewer's flags. Flags written for a different root
// are discarded, so a viewer whose session was rebuilt keeps the state of the
// discussion still on screen.
func (s *RedisStore) Bind(ctx context.Context, root string) (bool, error) {
	prev, err := s.client.SetArgs(ctx, s.rootKey(), root, redis.SetArgs{Get: true, TTL: s.ttl}).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("bind root: %w", err)
	}
	if err == nil && prev == root {
		return false, nil
	}
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return true, fmt.Errorf("reset flags: %w", err)
	}
	return true, nil
}

func (s *RedisStore) rootKey() string {
	return s.key + ":root"
}
