package cli

import (
	"github.com/spf13/cobra"
	"github.com/yourlabs/bigsudo/internal/apply"
)

func init() {
	rootCmd.AddCommand(tasksCmd)
}

var tasksCmd = &cobra.Command{
	Use:   "tasks <file|url> [hosts...] [key=value...] [ansible-playbook flags...]",
	Short: "Apply a task file",
	Long: `Apply a task file with the bundled tasks playbook. An http(s) URL is
downloaded into the current directory first.` + applyArgsHelp,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApply(cmd, args, (*apply.Applier).Tasks)
	},
}
