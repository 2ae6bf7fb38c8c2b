package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yourlabs/bigsudo/internal/apply"
	"github.com/yourlabs/bigsudo/internal/cliargs"
)

const applyArgsHelp = `
Arguments after the source are, in order of appearance:
  user@host, @host    target hosts (a bare word is also a host)
  key=value           extra variables passed with -e
  -x, --anything      the first dash argument and everything after it
                      goes to ansible-playbook untouched

--nosudo disables --become. Without hosts the run targets localhost.`

type applyFunc func(*apply.Applier, context.Context, apply.Request) (int, error)

// runApply classifies the arguments after the source and hands them to fn.
// Flag parsing is disabled on these commands so ansible-playbook flags pass
// through; only a leading -h/--help is handled here.
func runApply(cmd *cobra.Command, args []string, fn applyFunc) error {
	if wantsHelp(args) {
		return cmd.Help()
	}
	if len(args) == 0 {
		return fmt.Errorf("%s requires a source argument", cmd.Name())
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	parsed := cliargs.Classify(args[1:])
	req := apply.Request{
		Source: args[0],
		Hosts:  parsed.HostList(),
		Flags:  parsed.Flags(),
		Vars:   parsed.Vars(),
	}
	return exitStatus(fn(s.applier(cmd), cmd.Context(), req))
}

func wantsHelp(args []string) bool {
	return len(args) > 0 && (args[0] == "-h" || args[0] == "--help")
}
