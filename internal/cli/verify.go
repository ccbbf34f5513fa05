package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cadlink-project/cadlink/internal/layout"
	"github.com/cadlink-project/cadlink/internal/verify"
	"github.com/cadlink-project/cadlink/pkg/color"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [container ...]",
	Short: "Check decomposed trees against their recorded manifests",
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		verifier := verify.NewVerifier(c.RepoRoot())

		targets := args
		if len(targets) == 0 {
			statuses, err := c.Status(context.Background())
			if err != nil {
				exitWithHint(err)
			}
			for _, s := range statuses {
				if s.Decomposed {
					targets = append(targets, s.Path)
				}
			}
		}

		var results []*verify.Result
		for _, rel := range targets {
			treeRel, err := layout.DecomposedPath(rel, c.Config())
			if err != nil {
				exitWithHint(err)
			}
			res, err := verifier.VerifyTree(rel, treeRel)
			if err != nil {
				exitWithHint(err)
			}
			results = append(results, res)
		}

		if jsonOutput {
			outputJSON(results)
		}

		failed := false
		for _, res := range results {
			if res.OK() {
				if !jsonOutput {
					fmt.Printf("%s %s\n", color.Success("ok"), res.Container)
				}
				continue
			}
			failed = true
			if !jsonOutput {
				fmt.Printf("%s %s\n", color.Error("fail"), res.Container)
				for _, problem := range res.Problems {
					fmt.Printf("  %s\n", problem)
				}
			}
		}
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
