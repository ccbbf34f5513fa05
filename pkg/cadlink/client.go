// Package cadlink is the programmatic API consumed by the interactive
// layer. It wires the codec, layout resolver and lock coordinator over a
// git repository; the hook CLI uses the same internals through its own
// adapters.
package cadlink

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cadlink-project/cadlink/internal/codec"
	"github.com/cadlink-project/cadlink/internal/git"
	"github.com/cadlink-project/cadlink/internal/layout"
	"github.com/cadlink-project/cadlink/internal/lock"
	"github.com/cadlink-project/cadlink/pkg/config"
	"github.com/cadlink-project/cadlink/pkg/model"
	"github.com/cadlink-project/cadlink/pkg/pathutil"
)

// Client provides container operations on one repository.
type Client struct {
	repoRoot string
	cfg      *config.Config
	git      *git.Client
	locks    *lock.Coordinator
	codec    codec.Codec
	paths    *pathutil.KeyedMutex
}

type options struct {
	backend lock.Backend
	cfg     *config.Config
}

// Option customizes Open.
type Option func(*options)

// WithBackend substitutes the lock backend (tests use the in-memory one).
func WithBackend(b lock.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithConfig bypasses loading .cadlink.yaml.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// Open discovers the git repository at or above path and returns a client.
func Open(path string, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	gitc := git.New(path)
	root, err := gitc.RepoRoot()
	if err != nil {
		return nil, fmt.Errorf("cadlink open: %w", err)
	}
	gitc = git.New(root)

	cfg := o.cfg
	if cfg == nil {
		cfg, err = config.Load(root)
		if err != nil {
			return nil, err
		}
	}

	backend := o.backend
	if backend == nil {
		backend = lock.NewLFSBackend(gitc)
	}

	cd, err := codec.New(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		repoRoot: root,
		cfg:      cfg,
		git:      gitc,
		locks:    lock.NewCoordinator(cfg, backend),
		codec:    cd,
		paths:    pathutil.NewKeyedMutex(),
	}, nil
}

// Decompose explodes a container into its diff-friendly tree. The context
// is accepted for signature stability; a started decompose runs to
// completion or fails, partial output is never visible.
func (c *Client) Decompose(_ context.Context, containerRel string) (*codec.TreeHandle, error) {
	rel, err := pathutil.Normalize(containerRel)
	if err != nil {
		return nil, err
	}
	c.paths.Lock(rel)
	defer c.paths.Unlock(rel)

	treeRel, err := layout.DecomposedPath(rel, c.cfg)
	if err != nil {
		return nil, err
	}
	return c.codec.Decompose(c.abs(rel), c.abs(treeRel))
}

// Recompose rebuilds a container from its decomposed tree.
func (c *Client) Recompose(_ context.Context, containerRel string) error {
	rel, err := pathutil.Normalize(containerRel)
	if err != nil {
		return err
	}
	c.paths.Lock(rel)
	defer c.paths.Unlock(rel)

	treeRel, err := layout.DecomposedPath(rel, c.cfg)
	if err != nil {
		return err
	}
	return c.codec.Recompose(c.abs(treeRel), c.abs(rel))
}

// Lock acquires the exclusive edit lock for a container on behalf of the
// configured git identity.
func (c *Client) Lock(_ context.Context, containerRel string, force bool) (*model.Lock, error) {
	identity, err := c.git.UserName()
	if err != nil {
		return nil, err
	}
	return c.locks.Lock(containerRel, identity, force)
}

// Unlock releases the exclusive edit lock for a container.
func (c *Client) Unlock(_ context.Context, containerRel string, force bool) error {
	identity, err := c.git.UserName()
	if err != nil {
		return err
	}
	return c.locks.Unlock(containerRel, identity, force)
}

// ListLocks returns all locks known to the backend.
func (c *Client) ListLocks(_ context.Context) ([]*model.Lock, error) {
	return c.locks.ListLocks()
}

// ContainerStatus describes one tracked container.
type ContainerStatus struct {
	Path       string      `json:"path"`
	TreePath   string      `json:"tree_path"`
	Decomposed bool        `json:"decomposed"`
	Lock       *model.Lock `json:"lock,omitempty"`
}

// Status reports every tracked container with its decomposed-tree presence
// and current lock holder.
func (c *Client) Status(_ context.Context) ([]ContainerStatus, error) {
	tracked, err := c.git.TrackedPaths()
	if err != nil {
		return nil, err
	}

	locks, err := c.locks.ListLocks()
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*model.Lock, len(locks))
	for _, l := range locks {
		byKey[l.Path] = l
	}

	matcher, err := newContainerMatcher(c.cfg)
	if err != nil {
		return nil, err
	}

	var out []ContainerStatus
	for _, rel := range tracked {
		if !matcher(rel) {
			continue
		}
		treeRel, err := layout.DecomposedPath(rel, c.cfg)
		if err != nil {
			return nil, err
		}
		markerRel, err := layout.LockMarkerPath(rel, c.cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, ContainerStatus{
			Path:       rel,
			TreePath:   treeRel,
			Decomposed: treeExists(c.abs(treeRel)),
			Lock:       byKey[markerRel],
		})
	}
	return out, nil
}

// Coordinator exposes the underlying lock coordinator for hook wiring.
func (c *Client) Coordinator() *lock.Coordinator {
	return c.locks
}

// Codec exposes the underlying codec for hook wiring.
func (c *Client) Codec() codec.Codec {
	return c.codec
}

// Git exposes the underlying git client for hook wiring.
func (c *Client) Git() *git.Client {
	return c.git
}

// Config returns the loaded configuration record.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// RepoRoot returns the absolute repository root.
func (c *Client) RepoRoot() string {
	return c.repoRoot
}

func (c *Client) abs(rel string) string {
	return filepath.Join(c.repoRoot, filepath.FromSlash(rel))
}
