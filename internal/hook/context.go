// Package hook orchestrates the codec and the lock coordinator at git
// lifecycle events. The logic is pure functions over a Context; process
// argument parsing and exit codes live in the CLI adapters.
package hook

import (
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/cadlink-project/cadlink/internal/codec"
	"github.com/cadlink-project/cadlink/internal/layout"
	"github.com/cadlink-project/cadlink/internal/lock"
	"github.com/cadlink-project/cadlink/pkg/config"
	"github.com/cadlink-project/cadlink/pkg/errclass"
	"github.com/cadlink-project/cadlink/pkg/logging"
)

// GitClient is the slice of git operations the orchestrator consumes.
// *git.Client satisfies this; tests substitute a fake.
type GitClient interface {
	StagedPaths() ([]string, error)
	TrackedPaths() ([]string, error)
	DiffPaths(from, to string) ([]string, error)
	UserName() (string, error)
	Add(paths ...string) error
}

// Context bundles everything one hook invocation needs. It is built once
// at process start and threaded through; nothing here is process-global.
type Context struct {
	RepoRoot string
	Config   *config.Config
	Locks    *lock.Coordinator
	Git      GitClient
	Codec    codec.Codec
	Log      *logging.Logger

	containers []glob.Glob
}

// NewContext compiles the container patterns and returns a ready context.
func NewContext(repoRoot string, cfg *config.Config, locks *lock.Coordinator, gitc GitClient, cd codec.Codec, log *logging.Logger) (*Context, error) {
	matchers := make([]glob.Glob, 0, len(cfg.ContainerPatterns))
	for _, pattern := range cfg.ContainerPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errclass.ErrConfigInvalid.WithMessagef("container pattern %q: %v", pattern, err)
		}
		matchers = append(matchers, g)
	}
	if log == nil {
		log = logging.Default()
	}
	return &Context{
		RepoRoot:   repoRoot,
		Config:     cfg,
		Locks:      locks,
		Git:        gitc,
		Codec:      cd,
		Log:        log,
		containers: matchers,
	}, nil
}

// IsContainer reports whether a repo-relative path names a CAD container.
// Patterns match against the base name, so "*.FCStd" covers nested paths.
func (c *Context) IsContainer(rel string) bool {
	base := filepath.Base(rel)
	for _, g := range c.containers {
		if g.Match(base) || g.Match(rel) {
			return true
		}
	}
	return false
}

// filterContainers keeps only container paths.
func (c *Context) filterContainers(paths []string) []string {
	var out []string
	for _, p := range paths {
		if c.IsContainer(p) {
			out = append(out, p)
		}
	}
	return out
}

// treePath resolves the repo-relative and absolute decomposed-tree paths
// for a container.
func (c *Context) treePath(rel string) (treeRel, treeAbs string, err error) {
	treeRel, err = layout.DecomposedPath(rel, c.Config)
	if err != nil {
		return "", "", err
	}
	return treeRel, filepath.Join(c.RepoRoot, filepath.FromSlash(treeRel)), nil
}

func (c *Context) abs(rel string) string {
	return filepath.Join(c.RepoRoot, filepath.FromSlash(rel))
}
