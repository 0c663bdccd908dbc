package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"certcheck/internal/certcheck"
)

const defaultRedisPrefix = "certcheck:registry"

// addScript appends a record atomically. It refuses a second record with the
// same number and digest, pushes the record onto the ordered list and the
// per-number list, and claims the digest key if no record holds it yet.
var addScript = redis.NewScript(`
local members = redis.call('LRANGE', KEYS[2], 0, -1)
for _, m in ipairs(members) do
  if cjson.decode(m)['hash_hex'] == ARGV[2] then return 0 end
end
redis.call('RPUSH', KEYS[1], ARGV[1])
redis.call('RPUSH', KEYS[2], ARGV[1])
redis.call('SETNX', KEYS[3], ARGV[1])
return 1
`)

// RedisStore is a Store kept in Redis so several verifier processes share one
// registry. Layout under prefix:
//
//	<prefix>:records          list of JSON records in insertion order
//	<prefix>:number:<id>      list of JSON records with that certificate number
//	<prefix>:digest:<digest>  JSON of the first record registered with that digest
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to the redis:// URL and verifies the connection.
func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, prefix), nil
}

// NewRedisStoreFromClient wraps an existing client. The store owns the client
// and closes it on Close.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) recordsKey() string        { return s.prefix + ":records" }
func (s *RedisStore) numberKey(id string) string { return s.prefix + ":number:" + id }
func (s *RedisStore) digestKey(d string) string  { return s.prefix + ":digest:" + d }

func (s *RedisStore) FindByDigest(ctx context.Context, d string) (*certcheck.Record, error) {
	raw, err := s.client.Get(ctx, s.digestKey(d)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding record by digest: %w", err)
	}
	var rec certcheck.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) FindByIdentifier(ctx context.Context, id string) ([]certcheck.Record, error) {
	return s.lrange(ctx, s.numberKey(id))
}

func (s *RedisStore) List(ctx context.Context) ([]certcheck.Record, error) {
	return s.lrange(ctx, s.recordsKey())
}

func (s *RedisStore) Add(ctx context.Context, rec certcheck.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	keys := []string{s.recordsKey(), s.numberKey(rec.Identifier), s.digestKey(rec.Digest)}
	added, err := addScript.Run(ctx, s.client, keys, string(data), rec.Digest).Int()
	if err != nil {
		return fmt.Errorf("adding record: %w", err)
	}
	if added == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) lrange(ctx context.Context, key string) ([]certcheck.Record, error) {
	raws, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	out := make([]certcheck.Record, 0, len(raws))
	for _, raw := range raws {
		var rec certcheck.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
