package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cadlink-project/cadlink/internal/doctor"
	"github.com/cadlink-project/cadlink/pkg/color"
)

var doctorStrict bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the repository and cadlink environment",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		d := doctor.NewDoctor(c.RepoRoot(), c.Config(), c.Git())
		result, err := d.Check(doctorStrict)
		if err != nil {
			exitWithHint(err)
		}

		if jsonOutput {
			outputJSON(result)
			if !result.Healthy {
				os.Exit(1)
			}
			return
		}

		for _, f := range result.Findings {
			severity := color.Error(f.Severity)
			if f.Severity == "warning" {
				severity = color.Warning(f.Severity)
			}
			line := fmt.Sprintf("[%s] %s: %s", severity, f.Category, f.Description)
			if f.Path != "" {
				line += " (" + f.Path + ")"
			}
			fmt.Println(line)
		}

		if result.Healthy {
			fmt.Println(color.Success("repository is healthy"))
			return
		}
		os.Exit(1)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "also verify decomposed trees against their manifests")
	rootCmd.AddCommand(doctorCmd)
}
