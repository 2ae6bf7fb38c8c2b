package apply

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yourlabs/bigsudo/internal/cliargs"
	"github.com/yourlabs/bigsudo/internal/config"
	"github.com/yourlabs/bigsudo/internal/fetch"
	"github.com/yourlabs/bigsudo/internal/galaxy"
	"github.com/yourlabs/bigsudo/internal/inventory"
	"github.com/yourlabs/bigsudo/internal/manifest"
	"github.com/yourlabs/bigsudo/internal/runner"
	"github.com/yourlabs/bigsudo/internal/source"
)

// Variables the bundled playbooks read.
const (
	VarRole  = "apply_role"
	VarTasks = "apply_tasks"
)

// DefaultTask is the task file run when none is named.
const DefaultTask = "main"

// StdoutCallbackEnv selects the ansible output plugin.
const StdoutCallbackEnv = "ANSIBLE_STDOUT_CALLBACK"

// RolesPathEnv is the ansible role search path.
const RolesPathEnv = "ANSIBLE_ROLES_PATH"

// Request is one apply invocation.
type Request struct {
	Source string
	Hosts  []string
	Flags  []string
	Vars   inventory.Vars
}

// Options configures an Applier.
type Options struct {
	Settings config.Settings
	// Stderr receives the "+ command" trace; nil discards it.
	Stderr io.Writer
	// WorkDir is where relative paths resolve and downloads land.
	// Defaults to the current directory.
	WorkDir string
	// PlaybookDir holds the materialized bundled playbooks. Defaults to
	// <config dir>/playbooks.
	PlaybookDir string
	Fetcher     *fetch.Fetcher
}

// Applier runs ansible-playbook for roles, task files and playbooks.
type Applier struct {
	runner    runner.Runner
	installer *galaxy.Installer
	opts      Options
}

// New returns an Applier that installs roles with installer and spawns
// ansible-playbook through r.
func New(r runner.Runner, installer *galaxy.Installer, opts Options) *Applier {
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.WorkDir = wd
		} else {
			opts.WorkDir = "."
		}
	}
	if opts.PlaybookDir == "" {
		opts.PlaybookDir = filepath.Join(config.Dir(), "playbooks")
	}
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.New(fetch.WithProgress(opts.Stderr))
	}
	return &Applier{runner: r, installer: installer, opts: opts}
}

// Role applies a role. A local role directory is used in place after its
// requirements.yml is installed; anything else is installed first and
// applied by name.
func (a *Applier) Role(ctx context.Context, req Request) (int, error) {
	vars := copyVars(req.Vars)

	src := source.Resolve(a.abs(req.Source))
	if src.Kind == source.KindLocal {
		reqPath := filepath.Join(src.Path, manifest.RequirementsFile)
		if _, err := os.Stat(reqPath); err == nil {
			if err := a.installer.InstallRequirements(ctx, reqPath); err != nil {
				return 0, err
			}
		}
		vars[VarRole] = src.Path
	} else {
		name, err := a.installer.InstallRole(ctx, req.Source, false)
		if err != nil {
			return 0, err
		}
		vars[VarRole] = name
	}

	playbook, err := Materialize(a.opts.PlaybookDir, RolePlaybook)
	if err != nil {
		return 0, err
	}
	return a.exec(ctx, playbook, req.Hosts, req.Flags, vars)
}

// Tasks applies a single task file, downloading it first when it is a URL.
func (a *Applier) Tasks(ctx context.Context, req Request) (int, error) {
	path, err := a.localFile(ctx, req.Source)
	if err != nil {
		return 0, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.opts.WorkDir, path)
	}

	vars := copyVars(req.Vars)
	vars[VarTasks] = path

	playbook, err := Materialize(a.opts.PlaybookDir, TasksPlaybook)
	if err != nil {
		return 0, err
	}
	return a.exec(ctx, playbook, req.Hosts, req.Flags, vars)
}

// Playbook runs a playbook, downloading it first when it is a URL.
func (a *Applier) Playbook(ctx context.Context, req Request) (int, error) {
	path, err := a.localFile(ctx, req.Source)
	if err != nil {
		return 0, err
	}
	return a.exec(ctx, path, req.Hosts, req.Flags, copyVars(req.Vars))
}

// Run dispatches on the source: a .yml/.yaml file is a playbook, anything
// else is a role whose task files are the positional arguments (main when
// there are none). Hosts must be given as user@host or @host.
func (a *Applier) Run(ctx context.Context, src string, args cliargs.Args) (int, error) {
	req := Request{
		Source: src,
		Hosts:  args.Hosts(),
		Flags:  args.Flags(),
		Vars:   args.Vars(),
	}
	positionals := args.Values(cliargs.Positional)

	if source.IsPlaybook(src) {
		if len(positionals) > 0 {
			log.Warn().Strs("args", positionals).Msg("ignoring task names for a playbook")
		}
		return a.Playbook(ctx, req)
	}

	tasks := positionals
	if len(tasks) == 0 {
		tasks = []string{DefaultTask}
	}
	req.Vars[VarTasks] = tasks
	return a.Role(ctx, req)
}

// Argv returns the ansible-playbook command line for playbook.
func (a *Applier) Argv(playbook string, hosts, flags []string, vars inventory.Vars) ([]string, error) {
	s := a.opts.Settings
	argv, err := inventory.Build(hosts, a.allFlags(flags), vars, inventory.Options{
		PlaybookBin:       s.PlaybookBin,
		PythonInterpreter: s.PythonInterpreter,
		Become:            s.Become,
		ControlPersist:    s.ControlPersist,
		SSHPort:           os.Getenv("SSHPORT"),
	})
	if err != nil {
		return nil, err
	}
	return append(argv, playbook), nil
}

// allFlags prepends the configured extra arguments to flags.
func (a *Applier) allFlags(flags []string) []string {
	return append(append([]string{}, a.opts.Settings.ExtraArgs...), flags...)
}

func (a *Applier) exec(ctx context.Context, playbook string, hosts, flags []string, vars inventory.Vars) (int, error) {
	argv, err := a.Argv(playbook, hosts, flags, vars)
	if err != nil {
		return 0, err
	}

	cmd := runner.Command{Name: argv[0], Args: argv[1:], Dir: a.opts.WorkDir}
	if cb := StdoutCallback(a.opts.Settings.StdoutCallback, inventory.IsVerbose(a.allFlags(flags))); cb != "" {
		cmd.Env = append(cmd.Env, StdoutCallbackEnv+"="+cb)
	}
	if rp := RolesPath(a.opts.Settings.RolesPath); rp != "" {
		cmd.Env = append(cmd.Env, RolesPathEnv+"="+rp)
	}

	fmt.Fprintf(a.opts.Stderr, "+ %s\n", cmd)
	out, err := a.runner.Run(ctx, cmd)
	if err != nil {
		return 0, fmt.Errorf("running %s: %w", argv[0], err)
	}
	log.Debug().Int("exit_code", out.ExitCode).Msg("ansible-playbook finished")
	return out.ExitCode, nil
}

// StdoutCallback returns the ANSIBLE_STDOUT_CALLBACK value to set, or ""
// to leave the environment alone. Verbose runs use the debug callback;
// otherwise the configured callback applies only when the variable is
// unset.
func StdoutCallback(configured string, verbose bool) string {
	if verbose {
		return "debug"
	}
	if _, ok := os.LookupEnv(StdoutCallbackEnv); ok {
		return ""
	}
	return configured
}

// RolesPath returns the ANSIBLE_ROLES_PATH value to set, or "" to leave
// the environment alone. The install directory is searched first, then
// the ansible defaults. A path already set in the environment starts
// with the install directory and is kept.
func RolesPath(installDir string) string {
	if installDir == "" {
		return ""
	}
	if _, ok := os.LookupEnv(RolesPathEnv); ok {
		return ""
	}
	dirs := []string{installDir}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".ansible", "roles"))
	}
	dirs = append(dirs, galaxy.SystemRolePaths...)

	seen := make(map[string]bool, len(dirs))
	var path []string
	for _, d := range dirs {
		if seen[filepath.Clean(d)] {
			continue
		}
		seen[filepath.Clean(d)] = true
		path = append(path, d)
	}
	return strings.Join(path, string(os.PathListSeparator))
}

// localFile downloads ref into the work directory when it is a URL and
// returns the local path.
func (a *Applier) localFile(ctx context.Context, ref string) (string, error) {
	if !source.IsHTTP(ref) {
		return ref, nil
	}
	fmt.Fprintf(a.opts.Stderr, "Downloading %s\n", ref)
	return a.opts.Fetcher.Download(ctx, ref, a.opts.WorkDir)
}

// abs resolves a relative path against the work directory. Values that
// do not exist there are returned unchanged.
func (a *Applier) abs(ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	candidate := filepath.Join(a.opts.WorkDir, ref)
	if _, err := os.Stat(candidate); err != nil {
		return ref
	}
	return candidate
}

func copyVars(vars inventory.Vars) inventory.Vars {
	out := make(inventory.Vars, len(vars)+1)
	for k, v := range vars {
		out[k] = v
	}
	return out
}
