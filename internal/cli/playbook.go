package cli

import (
	"github.com/spf13/cobra"
	"github.com/yourlabs/bigsudo/internal/apply"
)

func init() {
	rootCmd.AddCommand(playbookCmd)
}

var playbookCmd = &cobra.Command{
	Use:   "playbook <file|url> [hosts...] [key=value...] [ansible-playbook flags...]",
	Short: "Apply a playbook",
	Long: `Run a playbook against the given hosts. An http(s) URL is downloaded
into the current directory first.` + applyArgsHelp,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApply(cmd, args, (*apply.Applier).Playbook)
	},
}
