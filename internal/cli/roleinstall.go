package cli

import (
	"github.com/spf13/cobra"
)

var roleinstallForce bool

func init() {
	roleinstallCmd.Flags().BoolVar(&roleinstallForce, "force", false, "Reinstall even if the role is already installed")
	rootCmd.AddCommand(roleinstallCmd)
}

var roleinstallCmd = &cobra.Command{
	Use:   "roleinstall <role>...",
	Short: "Install roles with ansible-galaxy",
	Long: `Install roles and, recursively, their requirements.yml.

A local directory is symlinked into the roles path under its
galaxy_info.role_name. A git spec is cloned over SSH, falling back to
HTTPS. Roles already listed by ansible-galaxy are skipped unless --force
is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		for _, ref := range args {
			if _, err := s.installer.InstallRole(cmd.Context(), ref, roleinstallForce); err != nil {
				return err
			}
		}
		return nil
	},
}
