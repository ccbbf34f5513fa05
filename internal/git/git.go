// Package git is the command-execution glue around the git binary. It runs
// subcommands against a repository root and parses their output; everything
// interesting happens in the callers.
package git

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Client runs git subcommands in a fixed working directory.
type Client struct {
	dir string
}

// New returns a client bound to the given directory.
func New(dir string) *Client {
	return &Client{dir: dir}
}

// Run executes a git subcommand and returns its stdout. Stderr is captured
// and folded into the error on failure.
func (c *Client) Run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = c.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// RepoRoot returns the absolute path of the repository work tree root.
func (c *Client) RepoRoot() (string, error) {
	out, err := c.Run("rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// GitDir returns the path of the .git directory.
func (c *Client) GitDir() (string, error) {
	out, err := c.Run("rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// StagedPaths returns repo-relative paths staged for the next commit.
func (c *Client) StagedPaths() ([]string, error) {
	out, err := c.Run("diff", "--cached", "--name-only", "--diff-filter=ACMR")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// DiffPaths returns repo-relative paths that differ between two revisions.
func (c *Client) DiffPaths(from, to string) ([]string, error) {
	out, err := c.Run("diff", "--name-only", from+".."+to)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// TrackedPaths returns all repo-relative paths tracked by git.
func (c *Client) TrackedPaths() ([]string, error) {
	out, err := c.Run("ls-files")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// UserName returns the committing identity (git config user.name).
func (c *Client) UserName() (string, error) {
	out, err := c.Run("config", "user.name")
	if err != nil {
		return "", fmt.Errorf("git identity not configured: %w", err)
	}
	name := strings.TrimSpace(out)
	if name == "" {
		return "", fmt.Errorf("git identity not configured (empty user.name)")
	}
	return name, nil
}

// Add stages the given repo-relative paths.
func (c *Client) Add(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := c.Run(args...)
	return err
}

// IsInstalled reports whether the git binary is on PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func splitLines(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}
