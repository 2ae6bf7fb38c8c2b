package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yourlabs/bigsudo/internal/galaxy"
	"github.com/yourlabs/bigsudo/internal/platform"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed roles",
	Long:  `List the roles ansible-galaxy reports as installed, marking local roles linked into the roles path.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents an installed role for display.
type listEntry struct {
	galaxy.Entry
	LinkTarget string `json:"link_target,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	roles, err := s.installer.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(roles) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No roles installed yet.")
		return nil
	}

	entries := make([]listEntry, 0, len(roles))
	for _, r := range roles {
		e := listEntry{Entry: r}
		if r.Path != "" {
			if target, err := platform.ReadLinkTarget(filepath.Join(r.Path, r.Name)); err == nil {
				e.LinkTarget = target
			}
		}
		entries = append(entries, e)
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tPATH")
	for _, e := range entries {
		path := "-"
		if e.Path != "" {
			path = filepath.Join(e.Path, e.Name)
		}
		if e.LinkTarget != "" {
			path += " -> " + e.LinkTarget
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Version, path)
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
