package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yourlabs/bigsudo/internal/apply"
	"github.com/yourlabs/bigsudo/internal/branding"
	"github.com/yourlabs/bigsudo/internal/config"
	"github.com/yourlabs/bigsudo/internal/galaxy"
	"github.com/yourlabs/bigsudo/internal/logging"
	"github.com/yourlabs/bigsudo/internal/runner"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var verbose bool

// ExitError carries the exit code of a spawned ansible command.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// newRunner builds the runner commands spawn processes with. Tests swap it
// for a fake.
var newRunner = func(cmd *cobra.Command) runner.Runner {
	return &runner.ExecRunner{
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` applies Ansible roles, task files and playbooks to ad-hoc hosts
without an inventory file. Missing roles are installed with ansible-galaxy first.

A first argument that is not a command is treated as "run":

  ` + branding.CLIName() + ` yourlabs.io/oss/k8s deploy@example.com
  ` + branding.CLIName() + ` github.com/your/repo,main @example.com update somevar=foo`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
		logging.Configure(cmd.ErrOrStderr(), verbose)
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	args, err := prepareArgs(os.Args[1:])
	if err != nil {
		return err
	}
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// prepareArgs applies leading root flags and returns the arguments left
// for the command tree. The apply commands disable flag parsing, so root
// flags in front of them have to be consumed here.
func prepareArgs(args []string) ([]string, error) {
	flags, rest := rewriteArgs(args)
	if err := rootCmd.PersistentFlags().Parse(flags); err != nil {
		return nil, err
	}
	return rest, nil
}

// rewriteArgs splits off leading root flags and prepends "run" when the
// next argument is neither a flag nor a command name.
func rewriteArgs(args []string) (flags, rest []string) {
	flags, rest = splitRootFlags(args)
	if len(rest) == 0 || strings.HasPrefix(rest[0], "-") || isCommand(rest[0]) {
		return flags, rest
	}
	return flags, append([]string{runCmd.Name()}, rest...)
}

// splitRootFlags returns the leading "--name[=value]" arguments that are
// root persistent flags, and everything after them.
func splitRootFlags(args []string) (flags, rest []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "--") || a == "--" {
			return args[:i], args[i:]
		}
		name, _, hasValue := strings.Cut(strings.TrimPrefix(a, "--"), "=")
		f := rootCmd.PersistentFlags().Lookup(name)
		if f == nil {
			return args[:i], args[i:]
		}
		if !hasValue && f.NoOptDefVal == "" && i+1 < len(args) {
			i++
		}
	}
	return args, nil
}

func isCommand(name string) bool {
	switch name {
	case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	for _, c := range rootCmd.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

// session holds what one invocation needs to install and apply roles.
type session struct {
	settings  config.Settings
	runner    runner.Runner
	installer *galaxy.Installer
}

func newSession(cmd *cobra.Command) (*session, error) {
	settings, err := config.Current()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	r := newRunner(cmd)
	return &session{
		settings: settings,
		runner:   r,
		installer: galaxy.New(r, galaxy.Options{
			GalaxyBin:          settings.GalaxyBin,
			RolesPath:          settings.RolesPath,
			PrepareSystemPaths: settings.PrepareSystemPaths,
			Out:                cmd.OutOrStdout(),
		}),
	}, nil
}

func (s *session) applier(cmd *cobra.Command) *apply.Applier {
	return apply.New(s.runner, s.installer, apply.Options{
		Settings: s.settings,
		Stderr:   cmd.ErrOrStderr(),
	})
}

// exitStatus turns a non-zero child exit code into an ExitError.
func exitStatus(code int, err error) error {
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code, Message: fmt.Sprintf("ansible-playbook exited with code %d", code)}
	}
	return nil
}
