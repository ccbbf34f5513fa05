package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cadlink-project/cadlink/internal/hook"
	"github.com/cadlink-project/cadlink/pkg/color"
)

var installHooksCmd = &cobra.Command{
	Use:   "install-hooks",
	Short: "Install the cadlink lifecycle hooks into .git/hooks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		gitDir, err := c.Git().GitDir()
		if err != nil {
			exitWithHint(err)
		}
		if !filepath.IsAbs(gitDir) {
			gitDir = filepath.Join(c.RepoRoot(), gitDir)
		}

		installed, err := hook.InstallShims(filepath.Join(gitDir, "hooks"))
		if err != nil {
			exitWithHint(err)
		}

		if jsonOutput {
			outputJSON(map[string]any{"installed": installed})
			return
		}
		fmt.Println(color.Successf("installed %d hooks", len(installed)))
		for _, phase := range installed {
			fmt.Printf("  %s\n", phase)
		}
	},
}

func init() {
	rootCmd.AddCommand(installHooksCmd)
}
