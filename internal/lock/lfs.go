package lock

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cadlink-project/cadlink/pkg/errclass"
	"github.com/cadlink-project/cadlink/pkg/model"
)

// Runner executes a version-control subcommand against the repository root
// and returns its stdout. *git.Client satisfies this.
type Runner interface {
	Run(args ...string) (string, error)
}

// LFSBackend persists locks through git's native large-file locking
// service. The remote LFS server is the single source of truth.
type LFSBackend struct {
	runner Runner
}

// NewLFSBackend returns a backend shelling out through runner.
func NewLFSBackend(runner Runner) *LFSBackend {
	return &LFSBackend{runner: runner}
}

// lfsLock mirrors the JSON shape emitted by `git lfs lock --json` and
// `git lfs locks --json`.
type lfsLock struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Owner struct {
		Name string `json:"name"`
	} `json:"owner"`
	LockedAt time.Time `json:"locked_at"`
}

func (l *lfsLock) toModel() *model.Lock {
	return &model.Lock{
		Path:       l.Path,
		Owner:      l.Owner.Name,
		ID:         l.ID,
		AcquiredAt: l.LockedAt,
	}
}

func (b *LFSBackend) Acquire(key, owner string) (*model.Lock, error) {
	out, err := b.runner.Run("lfs", "lock", "--json", key)
	if err != nil {
		return nil, classifyLFSError(err, key)
	}

	var lk lfsLock
	if err := json.Unmarshal([]byte(out), &lk); err != nil {
		return nil, errclass.ErrLockBackendUnavailable.WithMessagef(
			"unexpected lfs lock output for %s: %v", key, err)
	}
	return lk.toModel(), nil
}

func (b *LFSBackend) Release(key, owner string, force bool) error {
	args := []string{"lfs", "unlock", "--json"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, key)

	if _, err := b.runner.Run(args...); err != nil {
		return classifyLFSError(err, key)
	}
	return nil
}

func (b *LFSBackend) List() ([]*model.Lock, error) {
	out, err := b.runner.Run("lfs", "locks", "--json")
	if err != nil {
		return nil, classifyLFSError(err, "")
	}

	var raw []lfsLock
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, errclass.ErrLockBackendUnavailable.WithMessagef(
			"unexpected lfs locks output: %v", err)
	}

	locks := make([]*model.Lock, 0, len(raw))
	for i := range raw {
		locks = append(locks, raw[i].toModel())
	}
	return locks, nil
}

// classifyLFSError maps lfs command failures to error classes. Conflicts
// and ownership refusals have stable server messages; everything else means
// the backing service could not complete the request.
func classifyLFSError(err error, key string) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "lock exists") || strings.Contains(msg, "already created lock"):
		return errclass.ErrAlreadyLocked.WithMessagef("%s: %v", key, err)
	case strings.Contains(msg, "not the owner") || strings.Contains(msg, "owned by"):
		return errclass.ErrNotLockOwner.WithMessagef("%s: %v", key, err)
	default:
		return errclass.ErrLockBackendUnavailable.WithMessagef("lfs: %v", err)
	}
}
