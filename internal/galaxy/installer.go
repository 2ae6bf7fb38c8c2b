package galaxy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/yourlabs/bigsudo/internal/manifest"
	"github.com/yourlabs/bigsudo/internal/platform"
	"github.com/yourlabs/bigsudo/internal/runner"
	"github.com/yourlabs/bigsudo/internal/source"
)

// SystemRolePaths are created ahead of the first install so ansible-galaxy
// does not warn about them missing.
var SystemRolePaths = []string{
	"/usr/share/ansible/roles",
	"/etc/ansible/roles",
}

// Options configures an Installer.
type Options struct {
	GalaxyBin string
	// RolesPath is the directory roles are installed into.
	RolesPath string
	// PrepareSystemPaths runs `sudo -n mkdir -p` for missing SystemRolePaths.
	PrepareSystemPaths bool
	// Out receives the progress lines; nil discards them.
	Out io.Writer
}

// Installer installs roles and requirement manifests.
type Installer struct {
	runner runner.Runner
	opts   Options
	cache  *Cache

	prepared bool
	visited  map[string]bool
}

// New returns an Installer with an empty cache.
func New(r runner.Runner, opts Options) *Installer {
	if opts.GalaxyBin == "" {
		opts.GalaxyBin = "ansible-galaxy"
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Installer{
		runner:  r,
		opts:    opts,
		cache:   NewCache(r, opts.GalaxyBin, opts.RolesPath),
		visited: make(map[string]bool),
	}
}

// Cache returns the installer's cache of installed roles.
func (i *Installer) Cache() *Cache { return i.cache }

// RolesPath returns the directory roles are installed into.
func (i *Installer) RolesPath() string { return i.opts.RolesPath }

// RoleDir returns where the role name lives once installed.
func (i *Installer) RoleDir(name string) string {
	return filepath.Join(i.opts.RolesPath, name)
}

// InstallRole installs the role referenced by ref and returns the name it
// is installed under. A role already installed is left alone unless force
// is set.
func (i *Installer) InstallRole(ctx context.Context, ref string, force bool) (string, error) {
	if err := i.prepare(ctx); err != nil {
		return "", err
	}

	src := source.Resolve(ref)
	name, err := roleName(src)
	if err != nil {
		return "", err
	}

	if !force {
		installed, err := i.cache.Has(ctx, name)
		if err != nil {
			return "", err
		}
		if installed {
			log.Debug().Str("role", name).Msg("role already installed")
			return name, nil
		}
	}

	switch src.Kind {
	case source.KindLocal:
		if err := i.linkLocal(src.Path, name, force); err != nil {
			return "", err
		}
	case source.KindGit:
		if err := i.installGit(ctx, *src.Git, force); err != nil {
			return "", err
		}
	default:
		if err := i.galaxyInstall(ctx, force, src.InstallSource()); err != nil {
			return "", err
		}
	}
	i.cache.Add(name, "")

	if err := i.installNested(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

// InstallRequirements installs the manifest at path with
// `ansible-galaxy install --ignore-errors -r`, then recurses into the
// requirements.yml of every installed role it lists. Each manifest is
// processed at most once per Installer.
func (i *Installer) InstallRequirements(ctx context.Context, path string, extra ...string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if i.visited[abs] {
		log.Debug().Str("path", abs).Msg("requirements already processed")
		return nil
	}
	i.visited[abs] = true

	if err := i.prepare(ctx); err != nil {
		return err
	}

	args := append([]string{}, extra...)
	args = append(args, "--ignore-errors", "-r", abs)
	if err := i.galaxyInstall(ctx, false, args...); err != nil {
		return err
	}

	reqs, err := manifest.ParseRequirements(abs)
	if err != nil {
		return err
	}
	for _, r := range reqs.Roles {
		name := r.RoleName()
		if name == "" {
			continue
		}
		i.cache.Add(name, r.Version)
		if err := i.installNested(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Reinstall removes the installed copy of ref and installs it again.
func (i *Installer) Reinstall(ctx context.Context, ref string) (string, error) {
	name, err := roleName(source.Resolve(ref))
	if err != nil {
		return "", err
	}
	dir := i.RoleDir(name)
	if _, err := os.Lstat(dir); err == nil {
		fmt.Fprintf(i.opts.Out, "+ rm -rf %s\n", dir)
		if err := platform.RemoveInstalled(dir); err != nil {
			return "", err
		}
	}
	i.cache.Forget(name)
	return i.InstallRole(ctx, ref, true)
}

// List returns the installed roles.
func (i *Installer) List(ctx context.Context) ([]Entry, error) {
	return i.cache.Entries(ctx)
}

// roleName is the directory name src installs under. Local roles may
// rename themselves with galaxy_info.role_name.
func roleName(src source.Source) (string, error) {
	if src.Kind == source.KindLocal {
		return manifest.RoleNameFromDir(src.Path)
	}
	return src.Name, nil
}

func (i *Installer) installNested(ctx context.Context, name string) error {
	req := filepath.Join(i.RoleDir(name), manifest.RequirementsFile)
	if _, err := os.Stat(req); err != nil {
		return nil
	}
	return i.InstallRequirements(ctx, req)
}

func (i *Installer) linkLocal(path, name string, force bool) error {
	target := i.RoleDir(name)
	if _, err := os.Lstat(target); err == nil {
		if !force {
			fmt.Fprintf(i.opts.Out, "%s already in place, not overwriting\n", target)
			return nil
		}
		if err := platform.RemoveInstalled(target); err != nil {
			return err
		}
	}
	fmt.Fprintf(i.opts.Out, "%s -> %s\n", target, path)
	return platform.LinkDir(path, target)
}

// installGit tries an SSH clone first and falls back to anonymous HTTPS,
// which works for public repositories.
func (i *Installer) installGit(ctx context.Context, g source.GitSpec, force bool) error {
	err := i.galaxyInstall(ctx, force, g.SSHURL())
	if err == nil {
		return nil
	}
	log.Debug().Err(err).Str("host", g.Host).Msg("ssh clone failed, trying https")
	if err := i.galaxyInstall(ctx, force, g.HTTPSURL()); err != nil {
		return fmt.Errorf("installing %s/%s: %w", g.Host, g.Path, err)
	}
	return nil
}

func (i *Installer) galaxyInstall(ctx context.Context, force bool, args ...string) error {
	full := []string{"install"}
	if force {
		full = append(full, "--force")
	}
	if i.opts.RolesPath != "" {
		full = append(full, "--roles-path", i.opts.RolesPath)
	}
	full = append(full, args...)

	cmd := runner.Command{Name: i.opts.GalaxyBin, Args: full}
	fmt.Fprintf(i.opts.Out, "+ %s\n", cmd)
	out, err := i.runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("running %s: %w", i.opts.GalaxyBin, err)
	}
	if !out.Success() {
		return &InstallError{Command: cmd.String(), ExitCode: out.ExitCode}
	}
	return nil
}

// prepare creates the roles path and, once per Installer, the system role
// paths. Failures on the system paths are ignored.
func (i *Installer) prepare(ctx context.Context) error {
	if i.prepared {
		return nil
	}
	if i.opts.RolesPath != "" {
		if err := os.MkdirAll(i.opts.RolesPath, 0755); err != nil {
			return fmt.Errorf("creating roles path %s: %w", i.opts.RolesPath, err)
		}
	}
	i.prepared = true

	if !i.opts.PrepareSystemPaths {
		return nil
	}
	for _, p := range SystemRolePaths {
		if _, err := os.Stat(p); err == nil {
			continue
		}
		cmd := runner.Command{Name: "sudo", Args: []string{"-n", "mkdir", "-p", p}}
		if out, err := i.runner.Output(ctx, cmd); err != nil || !out.Success() {
			log.Debug().Err(err).Str("path", p).Msg("could not create system role path")
		}
	}
	return nil
}

// InstallError reports a failed ansible-galaxy invocation.
type InstallError struct {
	Command  string
	ExitCode int
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
}
