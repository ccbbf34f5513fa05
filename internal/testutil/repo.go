// Package testutil provides git repository fixtures for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// CreateWorkRepo creates a git repository with a configured identity and an
// initial commit. Returns the work tree path.
func CreateWorkRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	work := filepath.Join(dir, "work")

	Run(t, dir, "git", "init", "-b", "main", work)
	Run(t, work, "git", "config", "user.email", "alice@example.com")
	Run(t, work, "git", "config", "user.name", "alice")

	readme := filepath.Join(work, "README.md")
	if err := os.WriteFile(readme, []byte("# test\n"), 0644); err != nil {
		t.Fatal(err)
	}
	Run(t, work, "git", "add", ".")
	Run(t, work, "git", "commit", "-m", "initial commit")
	return work
}

// Commit stages everything and commits in the given repo.
func Commit(t *testing.T, work, message string) {
	t.Helper()
	Run(t, work, "git", "add", "-A")
	Run(t, work, "git", "commit", "-m", message)
}

// Run executes a command in dir and fails the test on error.
func Run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("%s %v: %v\n%s", name, args, err, out)
	}
}

// RequireGit skips the test when the git binary is unavailable.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}
