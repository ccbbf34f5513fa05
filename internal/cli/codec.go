package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadlink-project/cadlink/pkg/color"
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose <container>",
	Short: "Explode a container into its diff-friendly directory tree",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		handle, err := c.Decompose(context.Background(), args[0])
		if err != nil {
			exitWithHint(err)
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"tree":    handle.Dir,
				"entries": len(handle.Manifest.Entries),
			})
		} else {
			fmt.Println(color.Successf("decomposed %s (%d entries)", args[0], len(handle.Manifest.Entries)))
			fmt.Printf("  tree: %s\n", handle.Dir)
		}
	},
}

var recomposeCmd = &cobra.Command{
	Use:   "recompose <container>",
	Short: "Rebuild a container from its decomposed tree",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		if err := c.Recompose(context.Background(), args[0]); err != nil {
			exitWithHint(err)
		}

		if jsonOutput {
			outputJSON(map[string]any{"container": args[0]})
		} else {
			fmt.Println(color.Successf("recomposed %s", args[0]))
		}
	},
}

func init() {
	rootCmd.AddCommand(decomposeCmd)
	rootCmd.AddCommand(recomposeCmd)
}
