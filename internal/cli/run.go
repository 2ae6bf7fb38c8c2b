package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yourlabs/bigsudo/internal/cliargs"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <source> [user@host...] [task...] [key=value...] [ansible-playbook flags...]",
	Short: "Apply a playbook, or a role's task files",
	Long: `Run a playbook when the source ends with .yml or .yaml. Otherwise the
source is a role and every bare word after it names one of its task files
(tasks/<name>.yml), main when none is given. Hosts must contain "@":

  # runs tasks/main.yml of the repository
  bigsudo run github.com/your/repo @example.com somevar=foo

  # runs tasks/update.yml at ref yourbranch
  bigsudo run github.com/your/repo,yourbranch @example.com update

"run" is implied when the first argument is not a command.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if wantsHelp(args) {
			return cmd.Help()
		}
		if len(args) == 0 {
			return fmt.Errorf("run requires a source argument")
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		return exitStatus(s.applier(cmd).Run(cmd.Context(), args[0], cliargs.Classify(args[1:])))
	},
}
