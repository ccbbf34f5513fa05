package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cadlink-project/cadlink/pkg/color"
)

var (
	lockForce   bool
	unlockForce bool
)

var lockCmd = &cobra.Command{
	Use:   "lock <container>",
	Short: "Acquire the exclusive edit lock for a container",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		l, err := c.Lock(context.Background(), args[0], lockForce)
		if err != nil {
			exitWithHint(err)
		}

		if jsonOutput {
			outputJSON(l)
		} else {
			fmt.Println(color.Successf("locked %s", args[0]))
			fmt.Printf("  owner: %s\n", color.Owner(l.Owner))
			fmt.Printf("  since: %s\n", l.AcquiredAt.Format(time.RFC3339))
		}
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <container>",
	Short: "Release the exclusive edit lock for a container",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		if err := c.Unlock(context.Background(), args[0], unlockForce); err != nil {
			exitWithHint(err)
		}

		if jsonOutput {
			outputJSON(map[string]any{"container": args[0]})
		} else {
			fmt.Println(color.Successf("unlocked %s", args[0]))
		}
	},
}

var locksCmd = &cobra.Command{
	Use:   "locks",
	Short: "List all exclusive edit locks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		locks, err := c.ListLocks(context.Background())
		if err != nil {
			exitWithHint(err)
		}

		if jsonOutput {
			outputJSON(locks)
			return
		}
		if len(locks) == 0 {
			fmt.Println("no locks held")
			return
		}
		for _, l := range locks {
			fmt.Printf("%s  %s  %s\n", l.Path, color.Owner(l.Owner), l.AcquiredAt.Format(time.RFC3339))
		}
	},
}

func init() {
	lockCmd.Flags().BoolVar(&lockForce, "force", false, "take over a lock held by someone else")
	unlockCmd.Flags().BoolVar(&unlockForce, "force", false, "release a lock held by someone else")
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(locksCmd)
}
