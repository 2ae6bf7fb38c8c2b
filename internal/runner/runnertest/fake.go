// Package runnertest provides a scripted Runner for tests.
package runnertest

import (
	"context"
	"strings"

	"github.com/yourlabs/bigsudo/internal/runner"
)

// Response is what the fake returns for a matching command.
type Response struct {
	ExitCode int
	Stdout   string
	Err      error
	// Do runs before the response is returned, e.g. to create files a real
	// ansible-galaxy would have written.
	Do func()
}

// Fake records every command and answers from Responses, keyed by the
// command line prefix (name plus leading arguments joined by spaces). The
// longest matching prefix wins; unmatched commands succeed with no output.
type Fake struct {
	Responses map[string]Response
	Calls     []runner.Command
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{Responses: make(map[string]Response)}
}

// On registers a response for commands starting with prefix.
func (f *Fake) On(prefix string, resp Response) *Fake {
	f.Responses[prefix] = resp
	return f
}

// Run implements runner.Runner.
func (f *Fake) Run(ctx context.Context, cmd runner.Command) (*runner.Output, error) {
	return f.answer(cmd)
}

// Output implements runner.Runner.
func (f *Fake) Output(ctx context.Context, cmd runner.Command) (*runner.Output, error) {
	return f.answer(cmd)
}

// Lines returns every recorded call as a space-joined argv.
func (f *Fake) Lines() []string {
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, strings.Join(c.Argv(), " "))
	}
	return lines
}

// CallsTo returns the recorded calls whose argv starts with prefix.
func (f *Fake) CallsTo(prefix string) []runner.Command {
	var out []runner.Command
	for _, c := range f.Calls {
		if strings.HasPrefix(strings.Join(c.Argv(), " "), prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) answer(cmd runner.Command) (*runner.Output, error) {
	f.Calls = append(f.Calls, cmd)
	line := strings.Join(cmd.Argv(), " ")

	best := ""
	var resp Response
	found := false
	for prefix, r := range f.Responses {
		if strings.HasPrefix(line, prefix) && len(prefix) >= len(best) {
			best, resp, found = prefix, r, true
		}
	}
	if !found {
		return &runner.Output{}, nil
	}
	if resp.Do != nil {
		resp.Do()
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &runner.Output{ExitCode: resp.ExitCode, Stdout: resp.Stdout}, nil
}

var _ runner.Runner = (*Fake)(nil)
