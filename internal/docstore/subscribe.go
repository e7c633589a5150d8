package docstore

import (
	"context"
	"fmt"
)

// Snapshot is one full value of a path, delivered on subscription and after
// every subsequent commit. Exists is false when the path was removed (or has
// never been written).
type Snapshot struct {
	Path   string
	Value  []byte
	Exists bool
}

// Subscribe delivers the current value at path followed by every committed
// change, each as a complete snapshot — consumers re-derive their state by
// pure projection, never by patching. The channel closes when ctx is
// cancelled. Slow consumers lose intermediate snapshots rather than blocking
// writers; the latest one always arrives.
func (s *Store) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	pubsub := s.client.Subscribe(ctx, channelFor(path))

	// Confirm the subscription before taking the initial snapshot so no
	// commit can fall into the gap between the two.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", path, err)
	}

	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		value, exists, err := s.GetRaw(ctx, path)
		if err != nil {
			s.logger.Warn("initial snapshot failed", "path", path, "error", err)
			return
		}
		if !deliver(ctx, out, Snapshot{Path: path, Value: value, Exists: exists}) {
			return
		}

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				snap := Snapshot{
					Path:   path,
					Value:  []byte(msg.Payload),
					Exists: len(msg.Payload) > 0,
				}
				if !deliver(ctx, out, snap) {
					return
				}
			}
		}
	}()

	return out, nil
}

// deliver replaces a pending undelivered snapshot with the newer one instead
// of blocking behind it.
func deliver(ctx context.Context, out chan Snapshot, snap Snapshot) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case out <- snap:
			return true
		default:
		}
		select {
		case <-out:
			// Dropped the stale pending snapshot; try again.
		default:
		}
	}
}
