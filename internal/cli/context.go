package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/cadlink-project/cadlink/pkg/cadlink"
	"github.com/cadlink-project/cadlink/pkg/color"
	"github.com/cadlink-project/cadlink/pkg/errclass"
)

// requireClient opens the repository from CWD, or exits with an error.
func requireClient() *cadlink.Client {
	cwd, err := os.Getwd()
	if err != nil {
		fmtErr("cannot get current directory: %v", err)
		os.Exit(1)
	}
	c, err := cadlink.Open(cwd)
	if err != nil {
		fmtErr("not a git repository: %v", err)
		os.Exit(1)
	}
	return c
}

func fmtErr(format string, args ...any) {
	prefix := "cadlink: "
	if color.Enabled() {
		prefix = color.Error("cadlink:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}

// exitWithHint prints the error plus a per-class remediation hint, then
// exits non-zero.
func exitWithHint(err error) {
	fmtErr("%v", err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
	}
	os.Exit(1)
}

func hintFor(err error) string {
	var class *errclass.Error
	if !errors.As(err, &class) {
		return ""
	}
	switch class.Code {
	case errclass.ErrAlreadyLocked.Code:
		return "use --force to take over the lock, or ask the holder to release it"
	case errclass.ErrNotLockOwner.Code:
		return "only the lock holder can do this; use --force to override"
	case errclass.ErrLockBackendUnavailable.Code:
		return "check your network connection and that the remote supports git-lfs file locking"
	case errclass.ErrContainerCorrupt.Code:
		return "the container could not be read as a zip archive; restore it from a previous commit"
	case errclass.ErrTreeInvalid.Code:
		return "the decomposed tree is incomplete; re-run 'cadlink decompose' on the container"
	case errclass.ErrConfigInvalid.Code:
		return "fix the offending value in .cadlink.yaml"
	default:
		return ""
	}
}
