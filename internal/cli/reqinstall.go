package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/yourlabs/bigsudo/internal/manifest"
)

func init() {
	rootCmd.AddCommand(reqinstallCmd)
}

var reqinstallCmd = &cobra.Command{
	Use:   "reqinstall [path] [ansible-galaxy flags...]",
	Short: "Install a requirements.yml recursively",
	Long: `Install a requirements manifest (default: requirements.yml) with
ansible-galaxy --ignore-errors, then install the requirements.yml of every
role it lists. Flags are passed to ansible-galaxy.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if wantsHelp(args) {
			return cmd.Help()
		}
		path, extra := splitReqArgs(args)

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		return s.installer.InstallRequirements(cmd.Context(), path, extra...)
	},
}

// splitReqArgs takes the first non-flag argument as the manifest path.
func splitReqArgs(args []string) (string, []string) {
	path := manifest.RequirementsFile
	var extra []string
	found := false
	for _, a := range args {
		if !found && !strings.HasPrefix(a, "-") {
			path = a
			found = true
			continue
		}
		extra = append(extra, a)
	}
	return path, extra
}
