// Package identity issues anonymous participant identities. An identity is
// stable for the lifetime of a session; every mutating room or match call
// requires one first.
package identity

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rummyroom/rummyroom/internal/apperrors"
)

// Identity is an opaque participant id.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Provider resolves the caller's identity exactly once and hands it out
// afterwards. The zero Provider is unresolved.
type Provider struct {
	mu sync.RWMutex
	id *Identity
}

// Resolve issues a fresh anonymous identity, or returns the existing one if
// already resolved (the display name is not overwritten).
func (p *Provider) Resolve(displayName string) Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.id == nil {
		p.id = &Identity{
			ID:          uuid.NewString(),
			DisplayName: displayName,
		}
	}
	return *p.id
}

// Current returns the resolved identity, or ErrNoIdentity if Resolve has not
// run yet. Callers must treat the error as a blocking precondition for every
// mutating call.
func (p *Provider) Current() (Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.id == nil {
		return Identity{}, apperrors.ErrNoIdentity
	}
	return *p.id, nil
}
