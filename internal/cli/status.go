package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadlink-project/cadlink/pkg/color"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracked containers, their trees and lock holders",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		statuses, err := c.Status(context.Background())
		if err != nil {
			exitWithHint(err)
		}

		if jsonOutput {
			outputJSON(statuses)
			return
		}
		if len(statuses) == 0 {
			fmt.Println("no containers tracked")
			return
		}
		for _, s := range statuses {
			tree := "not decomposed"
			if s.Decomposed {
				tree = "decomposed"
			}
			holder := "unlocked"
			if s.Lock != nil {
				holder = "locked by " + color.Owner(s.Lock.Owner)
			}
			fmt.Printf("%s  [%s, %s]\n", s.Path, tree, holder)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
