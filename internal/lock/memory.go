package lock

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cadlink-project/cadlink/pkg/errclass"
	"github.com/cadlink-project/cadlink/pkg/model"
)

// MemoryBackend keeps lock state in process memory. It exists so the
// coordinator's mutual-exclusion behavior is testable without a network
// service; production uses the LFS backend.
type MemoryBackend struct {
	mu    sync.Mutex
	locks map[string]*model.Lock
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{locks: make(map[string]*model.Lock)}
}

func (b *MemoryBackend) Acquire(key, owner string) (*model.Lock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.locks[key]; ok {
		return nil, errclass.ErrAlreadyLocked.WithMessagef(
			"%s is locked by %s", key, existing.Owner)
	}

	l := &model.Lock{
		Path:       key,
		Owner:      owner,
		ID:         uuid.NewString(),
		AcquiredAt: time.Now().UTC(),
	}
	b.locks[key] = l
	return l, nil
}

func (b *MemoryBackend) Release(key, owner string, force bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, ok := b.locks[key]
	if !ok {
		return nil
	}
	if existing.Owner != owner && !force {
		return errclass.ErrNotLockOwner.WithMessagef(
			"%s is locked by %s", key, existing.Owner)
	}
	delete(b.locks, key)
	return nil
}

func (b *MemoryBackend) List() ([]*model.Lock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*model.Lock, 0, len(b.locks))
	for _, l := range b.locks {
		out = append(out, l)
	}
	return out, nil
}
