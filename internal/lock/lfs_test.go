package lock_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/cadlink-project/cadlink/internal/lock"
	"github.com/cadlink-project/cadlink/pkg/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner replays canned lfs responses and records invocations.
type fakeRunner struct {
	responses map[string]string
	err       error
	calls     []string
}

func (f *fakeRunner) Run(args ...string) (string, error) {
	joined := strings.Join(args, " ")
	f.calls = append(f.calls, joined)
	if f.err != nil {
		return "", f.err
	}
	for prefix, out := range f.responses {
		if strings.HasPrefix(joined, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func TestLFSBackend_Acquire(t *testing.T) {
	runner := &fakeRunner{responses: map[string]string{
		"lfs lock": `{"id":"42","path":"parts/BRK-001_uncompressed/.lockfile","owner":{"name":"alice"},"locked_at":"2026-08-30T10:00:00Z"}`,
	}}
	b := lock.NewLFSBackend(runner)

	l, err := b.Acquire("parts/BRK-001_uncompressed/.lockfile", "alice")
	require.NoError(t, err)
	assert.Equal(t, "42", l.ID)
	assert.Equal(t, "alice", l.Owner)
	assert.Equal(t, "parts/BRK-001_uncompressed/.lockfile", l.Path)
	assert.Equal(t, []string{"lfs lock --json parts/BRK-001_uncompressed/.lockfile"}, runner.calls)
}

func TestLFSBackend_AcquireConflict(t *testing.T) {
	runner := &fakeRunner{err: errors.New(`git lfs lock: exit status 2: Lock exists Path: parts/x already locked`)}
	b := lock.NewLFSBackend(runner)

	_, err := b.Acquire("parts/x", "bob")
	assert.ErrorIs(t, err, errclass.ErrAlreadyLocked)
}

func TestLFSBackend_Unavailable(t *testing.T) {
	runner := &fakeRunner{err: errors.New("git lfs lock: exit status 2: dial tcp: no such host")}
	b := lock.NewLFSBackend(runner)

	_, err := b.Acquire("parts/x", "alice")
	assert.ErrorIs(t, err, errclass.ErrLockBackendUnavailable)
}

func TestLFSBackend_ReleaseForce(t *testing.T) {
	runner := &fakeRunner{responses: map[string]string{"lfs unlock": `{}`}}
	b := lock.NewLFSBackend(runner)

	require.NoError(t, b.Release("parts/x", "alice", true))
	assert.Equal(t, []string{"lfs unlock --json --force parts/x"}, runner.calls)
}

func TestLFSBackend_List(t *testing.T) {
	runner := &fakeRunner{responses: map[string]string{
		"lfs locks": `[{"id":"1","path":"a/.lockfile","owner":{"name":"alice"},"locked_at":"2026-08-30T10:00:00Z"},
		               {"id":"2","path":"b/.lockfile","owner":{"name":"bob"},"locked_at":"2026-08-30T11:00:00Z"}]`,
	}}
	b := lock.NewLFSBackend(runner)

	locks, err := b.List()
	require.NoError(t, err)
	require.Len(t, locks, 2)
	assert.Equal(t, "alice", locks[0].Owner)
	assert.Equal(t, "bob", locks[1].Owner)
}

func TestLFSBackend_ListMalformed(t *testing.T) {
	runner := &fakeRunner{responses: map[string]string{"lfs locks": `not json`}}
	b := lock.NewLFSBackend(runner)

	_, err := b.List()
	assert.ErrorIs(t, err, errclass.ErrLockBackendUnavailable)
}
