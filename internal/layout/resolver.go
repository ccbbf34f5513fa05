// Package layout maps a container's repository-relative path to the
// decomposed-tree path and the lock-marker path. The codec and the lock
// coordinator both resolve through here; there is deliberately no second
// copy of this formula anywhere in the tree.
package layout

import (
	"path"

	"github.com/cadlink-project/cadlink/pkg/config"
	"github.com/cadlink-project/cadlink/pkg/errclass"
	"github.com/cadlink-project/cadlink/pkg/pathutil"
)

// LockMarkerName is the file inside a decomposed tree that marks exclusive
// checkout. Its content is owned by the lock coordinator.
const LockMarkerName = ".lockfile"

// DecomposedPath returns the repository-relative path of the decomposed
// tree for containerRel under cfg. Pure; no filesystem access.
func DecomposedPath(containerRel string, cfg *config.Config) (string, error) {
	rel, err := pathutil.Normalize(containerRel)
	if err != nil {
		return "", err
	}

	base := cfg.UncompressedPrefix + pathutil.Stem(rel) + cfg.UncompressedSuffix
	if base == "" {
		return "", errclass.ErrConfigInvalid.WithMessagef(
			"empty decomposed name for %s (prefix/suffix strip the whole stem)", rel)
	}

	dir := path.Dir(rel)
	if cfg.SubdirectoryMode {
		return path.Join(dir, cfg.SubdirectoryName, base), nil
	}
	return path.Join(dir, base), nil
}

// LockMarkerPath returns the repository-relative lock-marker path for
// containerRel under cfg.
func LockMarkerPath(containerRel string, cfg *config.Config) (string, error) {
	dir, err := DecomposedPath(containerRel, cfg)
	if err != nil {
		return "", err
	}
	return path.Join(dir, LockMarkerName), nil
}
