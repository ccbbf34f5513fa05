package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cadlink-project/cadlink/internal/hook"
	"github.com/cadlink-project/cadlink/pkg/cadlink"
	"github.com/cadlink-project/cadlink/pkg/logging"
)

// hookCmd groups the thin process adapters around the orchestrator. Each
// subcommand parses git's hook arguments, runs the phase function, and
// maps its result to an exit code; the policy (hard-fail vs soft-fail)
// lives in the orchestrator, not here.
var hookCmd = &cobra.Command{
	Use:    "hook",
	Short:  "Lifecycle hook entry points (invoked by git)",
	Hidden: true,
}

func buildHookContext(c *cadlink.Client) *hook.Context {
	ctx, err := hook.NewContext(
		c.RepoRoot(), c.Config(), c.Coordinator(), c.Git(), c.Codec(), logging.Default())
	if err != nil {
		exitWithHint(err)
	}
	return ctx
}

var hookPreCommitCmd = &cobra.Command{
	Use:   "pre-commit",
	Short: "Decompose staged containers and verify lock ownership",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := buildHookContext(requireClient())
		if err := hook.PreCommit(ctx); err != nil {
			exitWithHint(err) // abort the commit
		}
	},
}

var hookPostCheckoutCmd = &cobra.Command{
	Use:   "post-checkout <prev-head> <new-head> <branch-flag>",
	Short: "Recompose containers after a checkout",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := buildHookContext(requireClient())
		// Soft-fail: PostCheckout never returns an error.
		hook.PostCheckout(ctx, args[0], args[1], args[2] == "1")
	},
}

var hookPostMergeCmd = &cobra.Command{
	Use:   "post-merge <squash-flag>",
	Short: "Recompose containers after a merge",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := buildHookContext(requireClient())
		hook.PostMerge(ctx, args[0] == "1")
	},
}

var hookPostRewriteCmd = &cobra.Command{
	Use:   "post-rewrite <kind>",
	Short: "Recompose containers after a rebase or amend",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := buildHookContext(requireClient())
		hook.PostRewrite(ctx, args[0])
	},
}

var hookPrePushCmd = &cobra.Command{
	Use:   "pre-push <remote> <url>",
	Short: "Verify lock ownership for outgoing containers",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		refs, err := hook.ParsePushRefs(os.Stdin)
		if err != nil {
			exitWithHint(err)
		}
		ctx := buildHookContext(requireClient())
		if err := hook.PrePush(ctx, args[0], refs); err != nil {
			exitWithHint(err) // abort the push
		}
	},
}

func init() {
	hookCmd.AddCommand(hookPreCommitCmd)
	hookCmd.AddCommand(hookPostCheckoutCmd)
	hookCmd.AddCommand(hookPostMergeCmd)
	hookCmd.AddCommand(hookPostRewriteCmd)
	hookCmd.AddCommand(hookPrePushCmd)
	rootCmd.AddCommand(hookCmd)
}
