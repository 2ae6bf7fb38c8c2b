package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stdin, Stdout and Stderr can be set for testing; they default to the
	// process's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes cmd with its streams connected straight through.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Output, error) {
	c, err := r.build(ctx, cmd)
	if err != nil {
		return nil, err
	}
	c.Stdin = r.stdin()
	c.Stdout = r.stdout()
	c.Stderr = r.stderr()

	log.Debug().Str("cmd", cmd.String()).Msg("running")
	return finish(cmd, c.Run(), &Output{})
}

// Output executes cmd and captures what it prints.
func (r *ExecRunner) Output(ctx context.Context, cmd Command) (*Output, error) {
	c, err := r.build(ctx, cmd)
	if err != nil {
		return nil, err
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	c.Stdout = &stdoutBuf
	c.Stderr = &stderrBuf

	log.Debug().Str("cmd", cmd.String()).Msg("capturing")
	err = c.Run()
	return finish(cmd, err, &Output{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	})
}

func (r *ExecRunner) build(ctx context.Context, cmd Command) (*exec.Cmd, error) {
	bin, err := exec.LookPath(cmd.Name)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", cmd.Name, err)
	}
	c := exec.CommandContext(ctx, bin, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = mergeEnv(os.Environ(), cmd.Env)
	}
	return c, nil
}

func finish(cmd Command, err error, output *Output) (*Output, error) {
	if err == nil {
		output.ExitCode = 0
		return output, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		output.ExitCode = exitErr.ExitCode()
		log.Debug().Str("cmd", cmd.Name).Int("exit", output.ExitCode).Msg("non-zero exit")
		return output, nil
	}
	return output, fmt.Errorf("executing %s: %w", cmd.Name, err)
}

func (r *ExecRunner) stdin() io.Reader {
	if r.Stdin != nil {
		return r.Stdin
	}
	return os.Stdin
}

func (r *ExecRunner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *ExecRunner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
