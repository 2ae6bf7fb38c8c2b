package runner

import (
	"context"
	"strings"

	"github.com/alessio/shellescape"
)

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string
	// Env entries (KEY=VALUE) added on top of the current environment.
	Env []string
	Dir string
}

// Argv returns the command name followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command as a copy-pasteable shell line.
func (c Command) String() string {
	return shellescape.QuoteCommand(c.Argv())
}

// Runner executes commands.
type Runner interface {
	// Run executes the command with its standard streams connected to the
	// runner's streams and returns the exit code.
	Run(ctx context.Context, cmd Command) (*Output, error)
	// Output executes the command and captures stdout and stderr.
	Output(ctx context.Context, cmd Command) (*Output, error)
}

// Output captures the result of a command execution. Stdout and Stderr are
// only populated by Runner.Output.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited with status 0.
func (o *Output) Success() bool {
	return o != nil && o.ExitCode == 0
}

// setEnv sets or replaces an environment variable in the env slice.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}

// mergeEnv overlays KEY=VALUE entries onto base.
func mergeEnv(base, extra []string) []string {
	env := append([]string(nil), base...)
	for _, e := range extra {
		key, value, ok := strings.Cut(e, "=")
		if !ok || key == "" {
			continue
		}
		env = setEnv(env, key, value)
	}
	return env
}
