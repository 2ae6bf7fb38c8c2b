package inventory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
)

// Localhost is the pseudo-host targeted when no host is given.
const Localhost = "localhost"

// NoSudoFlag disables --become. It is consumed and never forwarded.
const NoSudoFlag = "--nosudo"

// Options holds the policy knobs that come from configuration.
type Options struct {
	PlaybookBin       string
	PythonInterpreter string
	// Become adds --become unless NoSudoFlag is passed.
	Become bool
	// ControlPersist is the ssh ControlPersist value, e.g. "120s".
	ControlPersist string
	// SSHPort, when set, adds -o Port=<SSHPort> to the SSH options.
	SSHPort string
}

// Host is a parsed host specifier.
type Host struct {
	User string
	Name string
}

// ParseHost splits "user@host". The user is empty for "host" and "@host".
func ParseHost(spec string) Host {
	user, name, found := strings.Cut(spec, "@")
	if !found {
		return Host{Name: spec}
	}
	return Host{User: user, Name: name}
}

// Vars maps extra-variable names to values. Strings are passed as-is,
// anything else is JSON encoded.
type Vars map[string]any

// Build returns the full argv (binary first) for running a playbook
// against hosts with the given passthrough flags and variables.
func Build(hosts, flags []string, vars Vars, opts Options) ([]string, error) {
	bin := opts.PlaybookBin
	if bin == "" {
		bin = "ansible-playbook"
	}

	noSudo := false
	argv := []string{bin}
	for _, f := range flags {
		if f == NoSudoFlag {
			noSudo = true
			continue
		}
		argv = append(argv, f)
	}

	if opts.Become && !noSudo {
		argv = append(argv, "--become")
	}

	if opts.PythonInterpreter != "" {
		argv = append(argv, "-e", "ansible_python_interpreter="+opts.PythonInterpreter)
	}

	if len(hosts) == 0 {
		hosts = []string{Localhost}
	}

	invFlag := HasInventoryFlag(flags)
	var inv []string
	user := ""
	if !invFlag {
		for _, spec := range hosts {
			h := ParseHost(spec)
			if h.User != "" {
				user = h.User
			}
			inv = append(inv, h.Name)
		}
	}

	switch {
	case len(inv) == 1 && inv[0] == Localhost:
		argv = append(argv, "-c", "local")
	case !invFlag && len(inv) == 1 && !HasSSHArgsFlag(flags):
		argv = append(argv, "--ssh-extra-args", SSHOptions(opts))
	}

	if user != "" {
		argv = append(argv, "-u", user)
	}

	if len(inv) > 0 {
		argv = append(argv, "-i", strings.Join(inv, ",")+",")
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := FormatValue(vars[k])
		if err != nil {
			return nil, fmt.Errorf("encoding variable %s: %w", k, err)
		}
		argv = append(argv, "-e", k+"="+v)
	}

	return argv, nil
}

// SSHOptions renders the multiplexing options passed via --ssh-extra-args.
func SSHOptions(opts Options) string {
	persist := opts.ControlPersist
	if persist == "" {
		persist = "120s"
	}
	parts := []string{
		"-o ControlMaster=auto",
		"-o ControlPersist=" + persist,
	}
	if opts.SSHPort != "" {
		parts = append(parts, "-o Port="+opts.SSHPort)
	}
	return strings.Join(parts, " ")
}

// FormatValue renders one extra-variable value for a key=value -e flag.
// Non-string values are JSON encoded and shell quoted so Ansible parses
// them back into the same structure.
func FormatValue(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		data, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return shellescape.Quote(string(data)), nil
	}
	switch {
	case strings.HasPrefix(s, `"`):
		return "'" + s + "'", nil
	case strings.HasPrefix(s, "'"):
		return `"` + s + `"`, nil
	default:
		return s, nil
	}
}

// HasInventoryFlag reports whether flags already carry an inventory.
func HasInventoryFlag(flags []string) bool {
	for _, f := range flags {
		if strings.HasPrefix(f, "--inventory") || strings.HasPrefix(f, "-i") {
			return true
		}
	}
	return false
}

// HasSSHArgsFlag reports whether flags already carry SSH argument options.
func HasSSHArgsFlag(flags []string) bool {
	for _, f := range flags {
		if strings.HasPrefix(f, "--ssh-extra-arg") || strings.HasPrefix(f, "--ssh-common-arg") {
			return true
		}
	}
	return false
}

// IsVerbose reports whether flags request verbose ansible output.
func IsVerbose(flags []string) bool {
	for _, f := range flags {
		if f == "--verbose" {
			return true
		}
		if len(f) > 1 && f[0] == '-' && strings.Trim(f[1:], "v") == "" {
			return true
		}
	}
	return false
}
