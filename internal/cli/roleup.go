package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(roleupCmd)
}

var roleupCmd = &cobra.Command{
	Use:   "roleup <role>...",
	Short: "Remove and reinstall roles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		for _, ref := range args {
			if _, err := s.installer.Reinstall(cmd.Context(), ref); err != nil {
				return err
			}
		}
		return nil
	},
}
