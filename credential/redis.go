package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the record in three Redis keys under a prefix.
//
// Save and Clear run inside MULTI/EXEC, so readers see either the previous
// record or the new one.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store using client. An empty prefix defaults to
// "goadmin".
func NewRedisStore(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if prefix == "" {
		prefix = "goadmin"
	}
	return &RedisStore{redis: client, prefix: prefix}, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

func (s *RedisStore) keys() []string {
	out := make([]string, 0, len(Keys))
	for _, k := range Keys {
		out = append(out, s.key(k))
	}
	return out
}

func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	raw, err := s.redis.MGet(ctx, s.keys()...).Result()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	values := make(map[string]string, len(Keys))
	for i, k := range Keys {
		if i >= len(raw) {
			break
		}
		if v, ok := raw[i].(string); ok {
			values[k] = v
		}
	}
	return decodeValues(values), nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	values, err := encodeValues(rec)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range Keys {
			v := values[k]
			if v == "" {
				pipe.Del(ctx, s.key(k))
				continue
			}
			pipe.Set(ctx, s.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.keys()...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
