package vault

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/gitnewer/internal/store"
)

// ErrNotFound is returned by Take for unknown or already-taken handles.
var ErrNotFound = errors.New("no snapshot for this handle")

// Vault stores deep copies of target configurations until they are restored.
type Vault struct {
	mu        sync.Mutex
	counter   int
	snapshots map[int]any
}

// New returns an empty Vault.
func New() *Vault {
	return &Vault{snapshots: make(map[int]any)}
}

// Store saves a deep copy of cfg and returns its handle.
func (v *Vault) Store(cfg any) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.counter++
	v.snapshots[v.counter] = store.Clone(cfg)
	return v.counter
}

// Take removes and returns the snapshot for handle.
func (v *Vault) Take(handle int) (any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	cfg, ok := v.snapshots[handle]
	if !ok {
		return nil, fmt.Errorf("handle %d: %w", handle, ErrNotFound)
	}
	delete(v.snapshots, handle)
	return cfg, nil
}

// Len returns the number of pending snapshots.
func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.snapshots)
}
