package cadlink

import (
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/cadlink-project/cadlink/internal/codec"
	"github.com/cadlink-project/cadlink/pkg/config"
	"github.com/cadlink-project/cadlink/pkg/errclass"
)

// newContainerMatcher compiles the config's container patterns into a
// predicate over repo-relative paths.
func newContainerMatcher(cfg *config.Config) (func(string) bool, error) {
	matchers := make([]glob.Glob, 0, len(cfg.ContainerPatterns))
	for _, pattern := range cfg.ContainerPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errclass.ErrConfigInvalid.WithMessagef("container pattern %q: %v", pattern, err)
		}
		matchers = append(matchers, g)
	}
	return func(rel string) bool {
		base := filepath.Base(rel)
		for _, g := range matchers {
			if g.Match(base) || g.Match(rel) {
				return true
			}
		}
		return false
	}, nil
}

// treeExists reports whether a decomposed tree (with its manifest) is
// present at the absolute path.
func treeExists(treeAbs string) bool {
	_, err := os.Stat(filepath.Join(treeAbs, codec.ManifestName))
	return err == nil
}
