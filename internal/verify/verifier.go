package verify

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/cadlink-project/cadlink/internal/codec"
	"github.com/cadlink-project/cadlink/pkg/errclass"
)

// Result contains verification results for a single decomposed tree.
type Result struct {
	Container     string   `json:"container"`
	TreePath      string   `json:"tree_path"`
	ManifestValid bool     `json:"manifest_valid"`
	EntriesValid  bool     `json:"entries_valid"`
	Problems      []string `json:"problems,omitempty"`
}

// OK reports whether the tree passed every check.
func (r *Result) OK() bool {
	return r.ManifestValid && r.EntriesValid
}

// Verifier checks decomposed trees against their recorded manifests.
type Verifier struct {
	repoRoot string
}

// NewVerifier creates a verifier rooted at the repository root.
func NewVerifier(repoRoot string) *Verifier {
	return &Verifier{repoRoot: repoRoot}
}

// VerifyTree verifies a single decomposed tree. containerRel and treeRel are
// repo-relative slash paths. Problems are accumulated in the result rather
// than returned as errors; an error is returned only when the tree cannot be
// inspected at all.
func (v *Verifier) VerifyTree(containerRel, treeRel string) (*Result, error) {
	result := &Result{
		Container: containerRel,
		TreePath:  treeRel,
	}

	treeDir := filepath.Join(v.repoRoot, filepath.FromSlash(treeRel))
	manifest, err := codec.LoadManifest(treeDir)
	if err != nil {
		if errors.Is(err, errclass.ErrTreeInvalid) {
			result.Problems = append(result.Problems, err.Error())
			return result, nil
		}
		return nil, err
	}
	result.ManifestValid = true

	if manifest.Find(codec.StructuralEntry) == nil {
		result.Problems = append(result.Problems, fmt.Sprintf("manifest missing required entry %s", codec.StructuralEntry))
	}
	if manifest.Find(codec.PresentationEntry) == nil {
		result.Problems = append(result.Problems, fmt.Sprintf("manifest missing required entry %s", codec.PresentationEntry))
	}

	entriesValid := true
	for _, entry := range manifest.Ordered() {
		path := filepath.Join(treeDir, filepath.FromSlash(entry.File))
		info, err := os.Stat(path)
		if err != nil {
			result.Problems = append(result.Problems, fmt.Sprintf("%s: file missing from tree", entry.Name))
			entriesValid = false
			continue
		}
		if uint64(info.Size()) != entry.Size {
			result.Problems = append(result.Problems, fmt.Sprintf("%s: size %d, manifest records %d", entry.Name, info.Size(), entry.Size))
			entriesValid = false
			continue
		}
		sum, err := fileCRC32(path)
		if err != nil {
			result.Problems = append(result.Problems, fmt.Sprintf("%s: %v", entry.Name, err))
			entriesValid = false
			continue
		}
		if sum != entry.CRC32 {
			result.Problems = append(result.Problems, fmt.Sprintf("%s: content checksum mismatch", entry.Name))
			entriesValid = false
		}
	}
	result.EntriesValid = entriesValid && len(result.Problems) == 0

	return result, nil
}

func fileCRC32(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return h.Sum32(), nil
}
