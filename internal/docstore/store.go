// Package docstore adapts Redis into the shared synchronized document the
// game runs on. Every path holds one JSON value; mutations go through
// optimistic transactions (WATCH/MULTI/EXEC with automatic retry) so that of
// any set of concurrent proposals against a path, exactly one commits.
// Subscribers receive the full current value of a path after every commit.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "doc:"
	channelPrefix = "doc.ch:"

	// maxTxRetries bounds how long a transaction chases a hot path before
	// giving up. Conflicts here are a handful of humans in one room, so
	// hitting this means something is broken, not busy.
	maxTxRetries = 64
)

// ErrTooMuchContention is returned when a transaction keeps losing the
// optimistic race past maxTxRetries.
var ErrTooMuchContention = errors.New("docstore: transaction retries exhausted")

// Store is the document store adapter.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// New wraps an existing Redis client.
func New(client *redis.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return New(client, logger), nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func keyFor(path string) string {
	return keyPrefix + path
}

func channelFor(path string) string {
	return channelPrefix + path
}

// GetRaw fetches the latest committed value at path. The second return is
// false when the path has never been written (or was removed).
func (s *Store) GetRaw(ctx context.Context, path string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, keyFor(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, true, nil
}

// PutRaw unconditionally writes a value and fans it out to subscribers.
// Only appropriate for paths the caller exclusively owns (fresh documents,
// presence records); contended paths must use TransactRaw.
func (s *Store) PutRaw(ctx context.Context, path string, data []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyFor(path), data, 0)
	pipe.Publish(ctx, channelFor(path), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// PutEphemeral writes a value that the store removes by itself after ttl
// unless refreshed. Combined with KeepAlive it acts as a dead-man's switch:
// a client that loses its connection stops refreshing and the record
// disappears store-side.
func (s *Store) PutEphemeral(ctx context.Context, path string, data []byte, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyFor(path), data, ttl)
	pipe.Publish(ctx, channelFor(path), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing ephemeral %s: %w", path, err)
	}
	return nil
}

// KeepAlive refreshes an ephemeral path's ttl until ctx is cancelled, then
// removes it explicitly. Blocks; run it in its own goroutine alongside the
// connection it guards.
func (s *Store) KeepAlive(ctx context.Context, path string, ttl time.Duration) {
	interval := ttl / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Best-effort explicit removal; expiry covers the rest.
			cleanup, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.Remove(cleanup, path); err != nil {
				s.logger.Warn("keepalive cleanup failed", "path", path, "error", err)
			}
			return
		case <-ticker.C:
			if err := s.client.Expire(ctx, keyFor(path), ttl).Err(); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("keepalive refresh failed", "path", path, "error", err)
			}
		}
	}
}

// Remove deletes a path and notifies subscribers with an empty payload.
func (s *Store) Remove(ctx context.Context, path string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keyFor(path))
	pipe.Publish(ctx, channelFor(path), "")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Paths lists every stored path matching the glob pattern.
func (s *Store) Paths(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.client.Keys(ctx, keyPrefix+pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", pattern, err)
	}
	paths := make([]string, len(keys))
	for i, key := range keys {
		paths[i] = key[len(keyPrefix):]
	}
	return paths, nil
}

// TxResult reports the outcome of a transaction. Committed is false when fn
// aborted; Value then carries the latest committed value the abort was
// decided against.
type TxResult struct {
	Committed bool
	Value     []byte
}

// TransactRaw runs fn against the latest value at path and atomically
// installs its result. fn must be pure: it may run several times when
// concurrent writers conflict, each run seeing the then-latest value.
// Returning abort=true proposes "no change" and surfaces Committed=false;
// the caller cannot distinguish a stale precondition from a lost race, by
// design of the error taxonomy.
func (s *Store) TransactRaw(ctx context.Context, path string, fn func(old []byte, exists bool) (next []byte, abort bool)) (TxResult, error) {
	key := keyFor(path)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var res TxResult
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			old, err := tx.Get(ctx, key).Bytes()
			exists := true
			if err != nil {
				if !errors.Is(err, redis.Nil) {
					return err
				}
				old, exists = nil, false
			}

			next, abort := fn(old, exists)
			if abort {
				res = TxResult{Committed: false, Value: old}
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, next, 0)
				pipe.Publish(ctx, channelFor(path), next)
				return nil
			})
			if err != nil {
				return err
			}
			res = TxResult{Committed: true, Value: next}
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			// Another writer committed between read and EXEC; re-run fn
			// against the fresh value.
			continue
		}
		if err != nil {
			return TxResult{}, fmt.Errorf("transacting %s: %w", path, err)
		}
		return res, nil
	}

	return TxResult{}, ErrTooMuchContention
}
