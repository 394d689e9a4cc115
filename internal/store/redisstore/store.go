package redisstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// dedupKey hashes the prompt so arbitrary user text never lands in a key.
func dedupKey(userID uint64, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("dedup:%d:%s", userID, hex.EncodeToString(sum[:16]))
}

// MarkGeneration records that a generation for (user, prompt) just started.
func (s *Store) MarkGeneration(ctx context.Context, userID uint64, prompt string, ttl time.Duration) error {
	return s.rdb.Set(ctx, dedupKey(userID, prompt), 1, ttl).Err()
}

// SeenGeneration reports whether a marker for (user, prompt) is still live.
func (s *Store) SeenGeneration(ctx context.Context, userID uint64, prompt string) (bool, error) {
	n, err := s.rdb.Exists(ctx, dedupKey(userID, prompt)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrUsage bumps the per-user counter for a generation outcome; written by
// the event worker, read by ops tooling.
func (s *Store) IncrUsage(ctx context.Context, userID uint64, status string) error {
	return s.rdb.Incr(ctx, fmt.Sprintf("usage:%d:%s", userID, status)).Err()
}
