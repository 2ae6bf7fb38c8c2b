package cli

import (
	"github.com/spf13/cobra"
	"github.com/yourlabs/bigsudo/internal/apply"
)

func init() {
	rootCmd.AddCommand(roleCmd)
}

var roleCmd = &cobra.Command{
	Use:   "role <role> [hosts...] [key=value...] [ansible-playbook flags...]",
	Short: "Apply a role",
	Long: `Apply a role with the bundled role playbook.

The role is a local directory, a git spec (owner/repo, host.tld/owner/repo,
user@host.tld/owner/repo), a URL or a Galaxy name. Anything but a local
directory is installed with ansible-galaxy first.` + applyArgsHelp,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApply(cmd, args, (*apply.Applier).Role)
	},
}
