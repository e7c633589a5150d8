// Package presence records who is online in a room. Presence is
// owner-write-only and never contended, so records are plain writes — no
// transaction — with a ttl acting as a dead-man's switch: a client whose
// connection drops stops refreshing and the store removes the record by
// itself.
package presence

import (
	"context"
	"log/slog"
	"time"

	"github.com/rummyroom/rummyroom/internal/docstore"
)

// Record is one participant's presence document.
type Record struct {
	Online      bool   `json:"online"`
	At          int64  `json:"at"`
	DisplayName string `json:"displayName"`
}

// Tracker registers and reads presence records.
type Tracker struct {
	store  *docstore.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewTracker creates a tracker. ttl is how long a record outlives its last
// heartbeat.
func NewTracker(store *docstore.Store, ttl time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Tracker{store: store, ttl: ttl, logger: logger}
}

func path(code, identity string) string {
	return "presence/" + code + "/" + identity
}

// Register writes the record and starts refreshing it until ctx — tied to
// the participant's connection — is cancelled, at which point the record is
// removed (explicitly when possible, by expiry otherwise). Call once per
// session, right after identity resolution.
func (t *Tracker) Register(ctx context.Context, code, identity, displayName string) error {
	rec := Record{Online: true, At: time.Now().Unix(), DisplayName: displayName}
	if err := docstore.PutEphemeral(ctx, t.store, path(code, identity), rec, t.ttl); err != nil {
		return err
	}

	go t.store.KeepAlive(ctx, path(code, identity), t.ttl)
	t.logger.Info("presence registered", "code", code, "identity", identity)
	return nil
}

// Deregister removes the record explicitly, ahead of the deferred cleanup.
func (t *Tracker) Deregister(ctx context.Context, code, identity string) error {
	return t.store.Remove(ctx, path(code, identity))
}

// Snapshot lists the current presence records of a room.
func (t *Tracker) Snapshot(ctx context.Context, code string) (map[string]Record, error) {
	paths, err := t.store.Paths(ctx, "presence/"+code+"/*")
	if err != nil {
		return nil, err
	}

	out := make(map[string]Record, len(paths))
	prefix := len("presence/" + code + "/")
	for _, p := range paths {
		rec, exists, err := docstore.Get[Record](ctx, t.store, p)
		if err != nil {
			return nil, err
		}
		if exists {
			out[p[prefix:]] = rec
		}
	}
	return out, nil
}
