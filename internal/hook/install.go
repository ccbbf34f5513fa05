package hook

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Phases lists every lifecycle hook cadlink participates in.
var Phases = []string{"pre-commit", "post-checkout", "post-merge", "post-rewrite", "pre-push"}

// shimMarker identifies shims we generated, so reinstalling overwrites
// them instead of chaining them behind themselves.
const shimMarker = "# generated by cadlink install-hooks"

// stdinPhases are hooks that receive data on stdin which must be forwarded
// both to a chained hook and to cadlink.
var stdinPhases = map[string]bool{"pre-push": true, "post-rewrite": true}

// InstallShims writes a delegating shell shim for every phase into
// hooksDir. A pre-existing foreign hook is renamed to
// <name>.pre-cadlink and invoked before cadlink. Returns the phases
// installed.
func InstallShims(hooksDir string) ([]string, error) {
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return nil, fmt.Errorf("create hooks dir: %w", err)
	}

	var installed []string
	for _, phase := range Phases {
		path := filepath.Join(hooksDir, phase)

		if data, err := os.ReadFile(path); err == nil && !bytes.Contains(data, []byte(shimMarker)) {
			if err := os.Rename(path, path+".pre-cadlink"); err != nil {
				return nil, fmt.Errorf("preserve existing %s hook: %w", phase, err)
			}
		}

		if err := os.WriteFile(path, []byte(shimScript(phase)), 0755); err != nil {
			return nil, fmt.Errorf("write %s shim: %w", phase, err)
		}
		installed = append(installed, phase)
	}
	return installed, nil
}

// MissingShims returns the phases whose shim is absent or was replaced
// by something we did not generate.
func MissingShims(hooksDir string) []string {
	var missing []string
	for _, phase := range Phases {
		data, err := os.ReadFile(filepath.Join(hooksDir, phase))
		if err != nil || !bytes.Contains(data, []byte(shimMarker)) {
			missing = append(missing, phase)
		}
	}
	return missing
}

func shimScript(phase string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString(shimMarker + "; do not edit\n")

	stdin := stdinPhases[phase]
	if stdin {
		b.WriteString(`input=$(cat)` + "\n")
	}

	b.WriteString(`chained="$0.pre-cadlink"` + "\n")
	b.WriteString(`if [ -x "$chained" ]; then` + "\n")
	if stdin {
		b.WriteString(`  printf '%s\n' "$input" | "$chained" "$@" || exit $?` + "\n")
	} else {
		b.WriteString(`  "$chained" "$@" || exit $?` + "\n")
	}
	b.WriteString("fi\n")

	if stdin {
		b.WriteString(`printf '%s\n' "$input" | cadlink hook ` + phase + ` "$@"` + "\n")
	} else {
		b.WriteString(`exec cadlink hook ` + phase + ` "$@"` + "\n")
	}
	return b.String()
}
