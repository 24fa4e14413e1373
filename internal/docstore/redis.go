package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

var _ Store = (*RedisStore)(nil)

const redisWatchRetries = 5

// RedisStore maps the first path segment to a Redis hash and the second to a
// field holding that child's JSON document. Deeper segments are resolved
// inside the document.
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
	log    *logger.Logger
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// DialRedis connects and pings, closing the client again when the ping
// fails.
func DialRedis(ctx context.Context, opts RedisOptions) (*goredis.Client, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisStore(rdb goredis.UniversalClient, prefix string, log *logger.Logger) *RedisStore {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisStore{rdb: rdb, prefix: prefix, log: log.With("store", "RedisStore")}
}

func (s *RedisStore) hashKey(collection string) string { return s.prefix + collection }

func (s *RedisStore) seqKey(collection string) string { return s.prefix + collection + ":seq" }

func (s *RedisStore) Get(ctx context.Context, path string) (Snapshot, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	key := segs[len(segs)-1]
	if len(segs) == 1 {
		fields, err := s.rdb.HGetAll(ctx, s.hashKey(segs[0])).Result()
		if err != nil {
			return Snapshot{}, fmt.Errorf("redis hgetall %s: %w", segs[0], err)
		}
		tree := make(map[string]any, len(fields))
		for field, raw := range fields {
			v, err := decodeJSON([]byte(raw))
			if err != nil {
				// keep the raw text so readers can skip it as malformed
				s.log.Warn("undecodable redis document", "collection", segs[0], "field", field, "error", err)
				tree[field] = raw
				continue
			}
			if v != nil {
				tree[field] = v
			}
		}
		if len(tree) == 0 {
			return NewSnapshot(key, nil), nil
		}
		return NewSnapshot(key, tree), nil
	}
	doc, err := s.readDoc(ctx, s.rdb, segs[0], segs[1])
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(key, lookup(doc, segs[2:])), nil
}

type hashGetter interface {
	HGet(ctx context.Context, key, field string) *goredis.StringCmd
}

func (s *RedisStore) readDoc(ctx context.Context, c hashGetter, collection, field string) (any, error) {
	raw, err := c.HGet(ctx, s.hashKey(collection), field).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget %s/%s: %w", collection, field, err)
	}
	v, err := decodeJSON([]byte(raw))
	if err != nil {
		return raw, nil
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	hash := s.hashKey(segs[0])
	switch len(segs) {
	case 1:
		return s.replaceCollection(ctx, hash, v)
	case 2:
		if v == nil {
			return s.rdb.HDel(ctx, hash, segs[1]).Err()
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("docstore: encode value: %w", err)
		}
		return s.rdb.HSet(ctx, hash, segs[1], raw).Err()
	default:
		return s.setNested(ctx, hash, segs, v)
	}
}

func (s *RedisStore) replaceCollection(ctx context.Context, hash string, v any) error {
	var children map[string]any
	switch t := v.(type) {
	case nil:
	case map[string]any:
		children = t
	case []any:
		children = listToMap(t)
	default:
		return ErrNotObject
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, hash)
		for field, child := range children {
			raw, err := json.Marshal(child)
			if err != nil {
				return fmt.Errorf("docstore: encode value: %w", err)
			}
			pipe.HSet(ctx, hash, field, raw)
		}
		return nil
	})
	return err
}

// setNested rewrites one document under WATCH so concurrent writers to the
// same hash retry instead of losing updates.
func (s *RedisStore) setNested(ctx context.Context, hash string, segs []string, v any) error {
	collection, field := segs[0], segs[1]
	txf := func(tx *goredis.Tx) error {
		doc, err := s.readDoc(ctx, tx, collection, field)
		if err != nil {
			return err
		}
		next := setIn(doc, segs[2:], v)
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			if next == nil {
				pipe.HDel(ctx, hash, field)
				return nil
			}
			raw, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("docstore: encode value: %w", err)
			}
			pipe.HSet(ctx, hash, field, raw)
			return nil
		})
		return err
	}
	for i := 0; i < redisWatchRetries; i++ {
		err := s.rdb.Watch(ctx, txf, hash)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis set %s: %w", JoinPath(segs...), goredis.TxFailedErr)
}

func (s *RedisStore) Remove(ctx context.Context, path string) error {
	return s.Set(ctx, path, nil)
}

// NextKey is only supported on collections.
func (s *RedisStore) NextKey(ctx context.Context, path string) (int64, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return 0, err
	}
	if len(segs) != 1 {
		return 0, ErrInvalidPath
	}
	for i := 0; i < 1000; i++ {
		id, err := s.rdb.Incr(ctx, s.seqKey(segs[0])).Result()
		if err != nil {
			return 0, fmt.Errorf("redis incr: %w", err)
		}
		taken, err := s.rdb.HExists(ctx, s.hashKey(segs[0]), strconv.FormatInt(id, 10)).Result()
		if err != nil {
			return 0, fmt.Errorf("redis hexists: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
	return 0, fmt.Errorf("redis next key for %s: sequence exhausted", segs[0])
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
