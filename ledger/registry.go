package ledger

import (
	"fmt"
	"sync"
)

// Registry is the ownership primitive: a plain tokenID -> owner table
// with owner-checked moves. It knows nothing about payments, policy or
// enumeration; the collection engine observes its outcomes.
type Registry struct {
	mu     sync.RWMutex
	owners map[uint64]string
}

func NewRegistry() *Registry {
	return &Registry{owners: make(map[uint64]string)}
}

func (r *Registry) Assign(owner string, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner == "" {
		return fmt.Errorf("assign token %d to empty owner", id)
	}
	if held, found := r.owners[id]; found {
		return fmt.Errorf("token %d already held by %s", id, held)
	}
	r.owners[id] = owner
	return nil
}

func (r *Registry) Unassign(owner string, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if held := r.owners[id]; held != owner {
		return fmt.Errorf("token %d held by %q not %q", id, held, owner)
	}
	delete(r.owners, id)
	return nil
}

func (r *Registry) Transfer(from, to string, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if to == "" {
		return fmt.Errorf("transfer token %d to empty owner", id)
	}
	if held := r.owners[id]; held != from {
		return fmt.Errorf("token %d held by %q not %q", id, held, from)
	}
	r.owners[id] = to
	return nil
}

func (r *Registry) OwnerOf(id uint64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, found := r.owners[id]
	return owner, found
}
