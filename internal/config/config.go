package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/viper"
	"github.com/yourlabs/bigsudo/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyPlaybookBin        = "playbook_bin"
	KeyGalaxyBin          = "galaxy_bin"
	KeyRolesPath          = "roles_path"
	KeyPythonInterpreter  = "python_interpreter"
	KeyStdoutCallback     = "stdout_callback"
	KeyControlPersist     = "control_persist"
	KeyBecome             = "become"
	KeyPrepareSystemPaths = "prepare_system_paths"
	KeyMinAnsibleVersion  = "min_ansible_version"
	KeyExtraArgs          = "extra_args"
)

// Keys lists every known key, in the order `config list` prints them.
var Keys = []string{
	KeyPlaybookBin,
	KeyGalaxyBin,
	KeyRolesPath,
	KeyPythonInterpreter,
	KeyStdoutCallback,
	KeyControlPersist,
	KeyBecome,
	KeyPrepareSystemPaths,
	KeyMinAnsibleVersion,
	KeyExtraArgs,
}

// Settings is the resolved configuration for one invocation.
type Settings struct {
	PlaybookBin        string
	GalaxyBin          string
	RolesPath          string
	PythonInterpreter  string
	StdoutCallback     string
	ControlPersist     string
	Become             bool
	PrepareSystemPaths bool
	MinAnsibleVersion  string
	ExtraArgs          []string
}

// Dir returns the path to the bigsudo config directory (~/.bigsudo/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.bigsudo/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	setDefaults()
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

func setDefaults() {
	viper.SetDefault(KeyPlaybookBin, "ansible-playbook")
	viper.SetDefault(KeyGalaxyBin, "ansible-galaxy")
	viper.SetDefault(KeyRolesPath, "")
	viper.SetDefault(KeyPythonInterpreter, "python3")
	viper.SetDefault(KeyStdoutCallback, "unixy")
	viper.SetDefault(KeyControlPersist, "120s")
	viper.SetDefault(KeyBecome, true)
	viper.SetDefault(KeyPrepareSystemPaths, true)
	viper.SetDefault(KeyMinAnsibleVersion, "2.9.0")
	viper.SetDefault(KeyExtraArgs, "")
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys, ", "))
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Current resolves the loaded configuration into Settings.
func Current() (Settings, error) {
	s := Settings{
		PlaybookBin:        viper.GetString(KeyPlaybookBin),
		GalaxyBin:          viper.GetString(KeyGalaxyBin),
		PythonInterpreter:  viper.GetString(KeyPythonInterpreter),
		StdoutCallback:     viper.GetString(KeyStdoutCallback),
		ControlPersist:     viper.GetString(KeyControlPersist),
		Become:             viper.GetBool(KeyBecome),
		PrepareSystemPaths: viper.GetBool(KeyPrepareSystemPaths),
		MinAnsibleVersion:  viper.GetString(KeyMinAnsibleVersion),
	}

	rolesPath, err := ResolveRolesPath(viper.GetString(KeyRolesPath))
	if err != nil {
		return Settings{}, err
	}
	s.RolesPath = rolesPath

	if raw := strings.TrimSpace(viper.GetString(KeyExtraArgs)); raw != "" {
		args, err := shellquote.Split(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("parsing %s %q: %w", KeyExtraArgs, raw, err)
		}
		s.ExtraArgs = args
	}

	return s, nil
}

// ResolveRolesPath returns the directory roles get installed into.
// ANSIBLE_ROLES_PATH (first entry) wins, then the configured value,
// then ~/.ansible/roles.
func ResolveRolesPath(configured string) (string, error) {
	if v := os.Getenv("ANSIBLE_ROLES_PATH"); v != "" {
		first := strings.Split(v, string(os.PathListSeparator))[0]
		if first != "" {
			return expandHome(first)
		}
	}
	if configured != "" {
		return expandHome(configured)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".ansible", "roles"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
