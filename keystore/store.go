package keystore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no record exists for the requested key id.
	ErrNotFound = errors.New("sealed key not found")
	// ErrStoreUnavailable wraps Redis transport and command failures.
	ErrStoreUnavailable = errors.New("key store unavailable")
	// ErrCorruptRecord is returned when a stored blob cannot be decoded.
	ErrCorruptRecord = errors.New("sealed key record corrupt")
)

// DefaultPrefix is used when NewStore is given an empty prefix.
const DefaultPrefix = "bk"

const deleteKeyScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteKeyLua = redis.NewScript(deleteKeyScript)

// Store is a Redis-backed sealed key store. It is safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store on client. prefix namespaces every key.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(envID, keyID uuid.UUID) string {
	return s.recordKey(envID, keyID.String())
}

func (s *Store) recordKey(envID uuid.UUID, keyID string) string {
	return s.prefix + ":env:" + envID.String() + ":key:" + keyID
}

func (s *Store) indexKey(envID uuid.UUID) string {
	return s.prefix + ":env:" + envID.String() + ":keys"
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Save writes k and adds it to its environment index in one transaction. An existing
// record with the same ids is overwritten.
func (s *Store) Save(ctx context.Context, k *SealedKey) error {
	data, err := Encode(k)
	if err != nil {
		return err
	}

	recordKey := s.key(k.EnvironmentID, k.ID)
	indexKey := s.indexKey(k.EnvironmentID)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey, data, 0)
		pipe.SAdd(ctx, indexKey, k.ID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get loads one record.
func (s *Store) Get(ctx context.Context, envID, keyID uuid.UUID) (*SealedKey, error) {
	data, err := s.redis.Get(ctx, s.key(envID, keyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	k, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if k.ID != keyID || k.EnvironmentID != envID {
		return nil, fmt.Errorf("%w: record ids do not match its key", ErrCorruptRecord)
	}
	return k, nil
}

// Delete removes a record and its index entry. It reports whether the record existed;
// deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, envID, keyID uuid.UUID) (bool, error) {
	keys := []string{s.key(envID, keyID), s.indexKey(envID)}
	existed, err := deleteKeyLua.Run(ctx, s.redis, keys, keyID.String()).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return existed == 1, nil
}

// ListByEnvironment returns every record of envID ordered by creation time. Index
// entries whose record has disappeared are pruned from the index.
func (s *Store) ListByEnvironment(ctx context.Context, envID uuid.UUID) ([]*SealedKey, error) {
	indexKey := s.indexKey(envID)

	ids, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*SealedKey{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(ids) == 0 {
		return []*SealedKey{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.recordKey(envID, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	out := make([]*SealedKey, 0, len(ids))
	var stale []interface{}
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				stale = append(stale, ids[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		k, err := Decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}

	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, indexKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
