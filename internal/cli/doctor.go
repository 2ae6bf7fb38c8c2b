package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
	"github.com/yourlabs/bigsudo/internal/manifest"
	"github.com/yourlabs/bigsudo/internal/platform"
	"github.com/yourlabs/bigsudo/internal/runner"
)

var checkRequirements string

func init() {
	doctorCmd.Flags().StringVar(&checkRequirements, "check-requirements", "", "Validate a requirements.yml at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the Ansible installation",
	Long: `Verify that ansible-playbook and ansible-galaxy are available and recent
enough, that the roles path is writable and that symlinks work. With
--check-requirements, validate a requirements manifest as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		failed := 0

		fmt.Fprintln(out, "Ansible check:")
		if !checkBinary(out, s.settings.PlaybookBin) {
			failed++
		} else if !checkAnsibleVersion(cmd.Context(), out, s.runner, s.settings.PlaybookBin, s.settings.MinAnsibleVersion) {
			failed++
		}
		if !checkBinary(out, s.settings.GalaxyBin) {
			failed++
		}

		fmt.Fprintln(out, "Environment check:")
		if !checkRolesPath(out, s.settings.RolesPath) {
			failed++
		}
		if platform.IsSymlinkSupported() {
			fmt.Fprintf(out, "  [ OK ] symlinks supported\n")
		} else {
			fmt.Fprintf(out, "  [WARN] symlinks unavailable, local roles cannot be linked\n")
		}

		if checkRequirements != "" {
			if !runRequirementsCheck(out, checkRequirements) {
				failed++
			}
		}

		if failed > 0 {
			return &ExitError{Code: 1, Message: fmt.Sprintf("doctor found %d problem(s)", failed)}
		}
		return nil
	},
}

func checkBinary(out io.Writer, name string) bool {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Fprintf(out, "  [MISS] %s not found\n", name)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] %s found at %s\n", name, path)
	return true
}

var ansibleVersionPattern = regexp.MustCompile(`(\d+\.\d+(\.\d+)?)`)

// parseAnsibleVersion reads the version from the first line of
// `ansible-playbook --version`, e.g. "ansible-playbook [core 2.15.3]".
func parseAnsibleVersion(output string) (*semver.Version, error) {
	m := ansibleVersionPattern.FindString(output)
	if m == "" {
		return nil, fmt.Errorf("no version in %q", output)
	}
	return semver.NewVersion(m)
}

func checkAnsibleVersion(ctx context.Context, out io.Writer, r runner.Runner, bin, minimum string) bool {
	res, err := r.Output(ctx, runner.Command{Name: bin, Args: []string{"--version"}})
	if err != nil || !res.Success() {
		fmt.Fprintf(out, "  [FAIL] %s --version failed\n", bin)
		return false
	}
	v, err := parseAnsibleVersion(res.Stdout)
	if err != nil {
		fmt.Fprintf(out, "  [WARN] cannot read %s version: %v\n", bin, err)
		return true
	}
	if minimum == "" {
		fmt.Fprintf(out, "  [ OK ] ansible %s\n", v)
		return true
	}
	c, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		fmt.Fprintf(out, "  [WARN] invalid min_ansible_version %q: %v\n", minimum, err)
		return true
	}
	if !c.Check(v) {
		fmt.Fprintf(out, "  [FAIL] ansible %s is older than %s\n", v, minimum)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] ansible %s (>= %s)\n", v, minimum)
	return true
}

func checkRolesPath(out io.Writer, path string) bool {
	if err := os.MkdirAll(path, 0755); err != nil {
		fmt.Fprintf(out, "  [FAIL] roles path %s: %v\n", path, err)
		return false
	}
	probe, err := os.CreateTemp(path, ".write-test-*")
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] roles path %s is not writable: %v\n", path, err)
		return false
	}
	probe.Close()
	os.Remove(probe.Name())
	fmt.Fprintf(out, "  [ OK ] roles path %s is writable\n", path)
	return true
}

func runRequirementsCheck(out io.Writer, path string) bool {
	fmt.Fprintf(out, "Requirements validation: %s\n", path)

	result, err := manifest.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}

	if result.Valid {
		reqs, err := manifest.ParseRequirements(path)
		if err != nil {
			fmt.Fprintf(out, "  [ OK ] valid\n")
			return true
		}
		fmt.Fprintf(out, "  [ OK ] valid: %d role(s), %d collection(s)\n", len(reqs.Roles), len(reqs.Collections))
		return true
	}

	fmt.Fprintf(out, "  [FAIL] %s:\n", result.Summary())
	for _, issue := range result.Issues {
		if issue.Path != "" {
			fmt.Fprintf(out, "    - %s: %s\n", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(out, "    - %s\n", issue.Message)
		}
	}
	return false
}
