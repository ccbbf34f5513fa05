// Package lock coordinates exclusive edit locks on container paths. The
// coordinator owns the policy (idempotent re-lock, owner checks, forced
// steals); persistence belongs entirely to the Backend.
package lock

import (
	"github.com/cadlink-project/cadlink/internal/layout"
	"github.com/cadlink-project/cadlink/pkg/config"
	"github.com/cadlink-project/cadlink/pkg/errclass"
	"github.com/cadlink-project/cadlink/pkg/model"
	"github.com/cadlink-project/cadlink/pkg/pathutil"
)

// Backend persists lock state authoritatively, keyed by an opaque path
// string. Acquire must fail when a lock already exists at the key.
type Backend interface {
	Acquire(key, owner string) (*model.Lock, error)
	Release(key, owner string, force bool) error
	List() ([]*model.Lock, error)
}

// Coordinator applies lock policy over a Backend. Operations on the same
// container path are serialized within the process; the backend is the only
// cross-process authority.
type Coordinator struct {
	cfg     *config.Config
	backend Backend
	paths   *pathutil.KeyedMutex
}

// NewCoordinator returns a coordinator over the given backend.
func NewCoordinator(cfg *config.Config, backend Backend) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		backend: backend,
		paths:   pathutil.NewKeyedMutex(),
	}
}

// Lock acquires the exclusive lock for containerRel on behalf of identity.
// Re-locking a path already held by identity returns the existing lock.
// A lock held by someone else fails with ErrAlreadyLocked unless force is
// set, in which case ownership transfers (last writer wins).
func (c *Coordinator) Lock(containerRel, identity string, force bool) (*model.Lock, error) {
	key, err := layout.LockMarkerPath(containerRel, c.cfg)
	if err != nil {
		return nil, err
	}

	c.paths.Lock(key)
	defer c.paths.Unlock(key)

	existing, err := c.findByKey(key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.OwnedBy(identity) {
			return existing, nil
		}
		if !force {
			return nil, errclass.ErrAlreadyLocked.WithMessagef(
				"%s is locked by %s", containerRel, existing.Owner)
		}
		if err := c.backend.Release(key, existing.Owner, true); err != nil {
			return nil, err
		}
	}

	return c.backend.Acquire(key, identity)
}

// Unlock releases the lock for containerRel. Releasing a path that is not
// locked is a no-op. A lock held by someone else fails with ErrNotLockOwner
// unless force is set.
func (c *Coordinator) Unlock(containerRel, identity string, force bool) error {
	key, err := layout.LockMarkerPath(containerRel, c.cfg)
	if err != nil {
		return err
	}

	c.paths.Lock(key)
	defer c.paths.Unlock(key)

	existing, err := c.findByKey(key)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if !existing.OwnedBy(identity) && !force {
		return errclass.ErrNotLockOwner.WithMessagef(
			"%s is locked by %s", containerRel, existing.Owner)
	}

	return c.backend.Release(key, existing.Owner, force)
}

// ListLocks returns all locks known to the backend.
func (c *Coordinator) ListLocks() ([]*model.Lock, error) {
	return c.backend.List()
}

// Find returns the current lock for containerRel, or nil when unlocked.
func (c *Coordinator) Find(containerRel string) (*model.Lock, error) {
	key, err := layout.LockMarkerPath(containerRel, c.cfg)
	if err != nil {
		return nil, err
	}
	return c.findByKey(key)
}

func (c *Coordinator) findByKey(key string) (*model.Lock, error) {
	locks, err := c.backend.List()
	if err != nil {
		return nil, err
	}
	for _, l := range locks {
		if l.Path == key {
			return l, nil
		}
	}
	return nil, nil
}
