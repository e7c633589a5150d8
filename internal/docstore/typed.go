package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// The typed helpers are package functions because Go methods cannot carry
// type parameters. They wrap the raw byte operations with JSON codecs.

// Result is TxResult decoded into the document type.
type Result[T any] struct {
	Committed bool
	Value     T
}

// Get reads and decodes the value at path.
func Get[T any](ctx context.Context, s *Store, path string) (T, bool, error) {
	var v T
	data, exists, err := s.GetRaw(ctx, path)
	if err != nil || !exists {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return v, true, nil
}

// Put encodes and unconditionally writes v at path.
func Put[T any](ctx context.Context, s *Store, path string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return s.PutRaw(ctx, path, data)
}

// PutEphemeral encodes and writes v with a ttl.
func PutEphemeral[T any](ctx context.Context, s *Store, path string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return s.PutEphemeral(ctx, path, data, ttl)
}

// Transact runs a typed old→new function at path. fn sees the zero value of
// T with exists=false for an unwritten path. Returning abort=true proposes
// no change; the result then carries the value the abort was decided
// against.
func Transact[T any](ctx context.Context, s *Store, path string, fn func(old T, exists bool) (next T, abort bool)) (Result[T], error) {
	var decodeErr error
	raw, err := s.TransactRaw(ctx, path, func(old []byte, exists bool) ([]byte, bool) {
		var oldV T
		if exists {
			if err := json.Unmarshal(old, &oldV); err != nil {
				decodeErr = fmt.Errorf("decoding %s: %w", path, err)
				return nil, true
			}
		}
		nextV, abort := fn(oldV, exists)
		if abort {
			return nil, true
		}
		next, err := json.Marshal(nextV)
		if err != nil {
			decodeErr = fmt.Errorf("encoding %s: %w", path, err)
			return nil, true
		}
		return next, false
	})
	if decodeErr != nil {
		return Result[T]{}, decodeErr
	}
	if err != nil {
		return Result[T]{}, err
	}

	res := Result[T]{Committed: raw.Committed}
	if len(raw.Value) > 0 {
		if err := json.Unmarshal(raw.Value, &res.Value); err != nil {
			return Result[T]{}, fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	return res, nil
}
