package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cadlink-project/cadlink/pkg/errclass"
	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := errclass.ErrAlreadyLocked.WithMessage("container is locked")
	assert.Equal(t, "E_ALREADY_LOCKED: container is locked", err.Error())
}

func TestError_BareCode(t *testing.T) {
	assert.Equal(t, "E_NOT_FOUND", errclass.ErrNotFound.Error())
}

func TestError_Is(t *testing.T) {
	err := errclass.ErrNotLockOwner.WithMessagef("held by %s", "alice")
	assert.True(t, errors.Is(err, errclass.ErrNotLockOwner))
	assert.False(t, errors.Is(err, errclass.ErrAlreadyLocked))
}

func TestError_IsThroughWrap(t *testing.T) {
	err := fmt.Errorf("release lock: %w", errclass.ErrNotLockOwner.WithMessage("held by bob"))
	assert.True(t, errors.Is(err, errclass.ErrNotLockOwner))
}

func TestError_CodesStable(t *testing.T) {
	codes := map[*errclass.Error]string{
		errclass.ErrNotFound:               "E_NOT_FOUND",
		errclass.ErrContainerCorrupt:       "E_CONTAINER_CORRUPT",
		errclass.ErrTreeInvalid:            "E_TREE_INVALID",
		errclass.ErrConfigInvalid:          "E_CONFIG_INVALID",
		errclass.ErrAlreadyLocked:          "E_ALREADY_LOCKED",
		errclass.ErrNotLockOwner:           "E_NOT_LOCK_OWNER",
		errclass.ErrLockBackendUnavailable: "E_LOCK_BACKEND_UNAVAILABLE",
	}
	for err, code := range codes {
		assert.Equal(t, code, err.Code)
	}
}
