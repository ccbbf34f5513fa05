package doctor

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/cadlink-project/cadlink/internal/git"
	"github.com/cadlink-project/cadlink/internal/hook"
	"github.com/cadlink-project/cadlink/internal/layout"
	"github.com/cadlink-project/cadlink/internal/verify"
	"github.com/cadlink-project/cadlink/pkg/config"
)

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity != "warning" {
		r.Healthy = false
	}
}

// Doctor performs working-repository health checks.
type Doctor struct {
	repoRoot string
	cfg      *config.Config
	git      *git.Client
}

// NewDoctor creates a doctor for the repository at repoRoot.
func NewDoctor(repoRoot string, cfg *config.Config, g *git.Client) *Doctor {
	return &Doctor{repoRoot: repoRoot, cfg: cfg, git: g}
}

// Check runs all diagnostic checks. With strict set, every decomposed tree
// is additionally verified against its manifest.
func (d *Doctor) Check(strict bool) (*Result, error) {
	result := &Result{Healthy: true}

	d.checkTools(result)
	d.checkConfig(result)
	d.checkHooks(result)
	d.checkStaleTemp(result)
	if err := d.checkTrees(result, strict); err != nil {
		return nil, err
	}

	return result, nil
}

func (d *Doctor) checkTools(result *Result) {
	if !git.IsInstalled() {
		result.add(Finding{
			Category:    "tools",
			Description: "git is not installed or not on PATH",
			Severity:    "critical",
		})
		return
	}
	if d.cfg.RequireLock {
		if _, err := exec.LookPath("git-lfs"); err != nil {
			result.add(Finding{
				Category:    "tools",
				Description: "require_lock is set but git-lfs is not installed",
				Severity:    "critical",
			})
		}
	}
}

func (d *Doctor) checkConfig(result *Result) {
	if err := d.cfg.Validate(); err != nil {
		result.add(Finding{
			Category:    "config",
			Description: err.Error(),
			Severity:    "critical",
			Path:        filepath.Join(d.repoRoot, config.FileName),
		})
	}
}

func (d *Doctor) checkHooks(result *Result) {
	gitDir, err := d.git.GitDir()
	if err != nil {
		result.add(Finding{
			Category:    "hooks",
			Description: fmt.Sprintf("cannot locate git dir: %v", err),
			Severity:    "error",
		})
		return
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(d.repoRoot, gitDir)
	}
	missing := hook.MissingShims(filepath.Join(gitDir, "hooks"))
	if len(missing) > 0 {
		result.add(Finding{
			Category:    "hooks",
			Description: fmt.Sprintf("hook shims not installed: %s (run cadlink install-hooks)", strings.Join(missing, ", ")),
			Severity:    "warning",
		})
	}
}

// checkStaleTemp reports leftover staging directories and temp files from
// interrupted decompose or recompose runs.
func (d *Doctor) checkStaleTemp(result *Result) {
	_ = filepath.WalkDir(d.repoRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := entry.Name()
		if entry.IsDir() && name == ".git" {
			return filepath.SkipDir
		}
		if strings.HasPrefix(name, ".cadlink-stage-") || strings.HasPrefix(name, ".cadlink-tmp-") {
			result.add(Finding{
				Category:    "leftovers",
				Description: "stale temporary file or directory from an interrupted run",
				Severity:    "warning",
				Path:        path,
			})
			if entry.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
}

func (d *Doctor) checkTrees(result *Result, strict bool) error {
	tracked, err := d.git.TrackedPaths()
	if err != nil {
		return fmt.Errorf("list tracked paths: %w", err)
	}

	matchers := make([]glob.Glob, 0, len(d.cfg.ContainerPatterns))
	for _, pattern := range d.cfg.ContainerPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		matchers = append(matchers, g)
	}

	verifier := verify.NewVerifier(d.repoRoot)
	for _, rel := range tracked {
		if !matchesAny(rel, matchers) {
			continue
		}
		treeRel, err := layout.DecomposedPath(rel, d.cfg)
		if err != nil {
			result.add(Finding{
				Category:    "layout",
				Description: err.Error(),
				Severity:    "error",
				Path:        rel,
			})
			continue
		}
		treeDir := filepath.Join(d.repoRoot, filepath.FromSlash(treeRel))
		if _, err := os.Stat(treeDir); err != nil {
			continue
		}
		if !strict {
			continue
		}
		res, err := verifier.VerifyTree(rel, treeRel)
		if err != nil {
			return err
		}
		for _, problem := range res.Problems {
			result.add(Finding{
				Category:    "tree",
				Description: problem,
				Severity:    "error",
				Path:        treeRel,
			})
		}
	}
	return nil
}

func matchesAny(rel string, matchers []glob.Glob) bool {
	base := filepath.Base(rel)
	for _, g := range matchers {
		if g.Match(base) || g.Match(rel) {
			return true
		}
	}
	return false
}
