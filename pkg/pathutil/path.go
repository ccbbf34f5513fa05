// Package pathutil provides repo-relative path normalization and per-path
// serialization used across the codec and lock layers.
package pathutil

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/cadlink-project/cadlink/pkg/errclass"
)

// Normalize canonicalizes a repository-relative path: slash separators,
// NFC unicode form, no leading "./". The same container must map to the
// same lock key on every platform (macOS reports NFD filenames).
func Normalize(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	rel = norm.NFC.String(rel)
	rel = path.Clean(rel)

	if rel == "" || rel == "." {
		return "", errclass.ErrConfigInvalid.WithMessage("empty repository-relative path")
	}
	if path.IsAbs(rel) {
		return "", errclass.ErrConfigInvalid.WithMessagef("path must be repository-relative: %s", rel)
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", errclass.ErrConfigInvalid.WithMessagef("path escapes repository: %s", rel)
	}
	return rel, nil
}

// Stem returns the final path element with its extension removed.
func Stem(rel string) string {
	base := path.Base(rel)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
