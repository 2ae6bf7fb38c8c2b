// Package cliargs tags free-form trailing command-line arguments in one
// deterministic pass.
//
// Scanning left to right, the first argument starting with "-" switches to
// flag mode: it and every argument after it are forwarded untouched, so a
// flag value such as "-e foo" is never mistaken for a task name. Before
// that point an identifier followed by "=" is a variable, an argument
// containing "@" and no space is a host, and anything else is positional.
// A bare "--" switches to flag mode and is dropped.
package cliargs

import (
	"regexp"
	"strings"
)

// Tag classifies one argument.
type Tag int

const (
	Positional Tag = iota
	Host
	Var
	Flag
)

// String returns the tag name.
func (t Tag) String() string {
	switch t {
	case Host:
		return "host"
	case Var:
		return "var"
	case Flag:
		return "flag"
	default:
		return "positional"
	}
}

// Arg is a tagged argument. Key is set for Var.
type Arg struct {
	Tag   Tag
	Key   string
	Value string
}

// Args is the result of Classify, in input order.
type Args []Arg

var varPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

// Classify tags args.
func Classify(args []string) Args {
	out := make(Args, 0, len(args))
	flagMode := false
	for _, a := range args {
		if !flagMode && a == "--" {
			flagMode = true
			continue
		}
		if !flagMode && strings.HasPrefix(a, "-") {
			flagMode = true
		}
		switch {
		case flagMode:
			out = append(out, Arg{Tag: Flag, Value: a})
		case varPattern.MatchString(a):
			m := varPattern.FindStringSubmatch(a)
			out = append(out, Arg{Tag: Var, Key: m[1], Value: m[2]})
		case strings.Contains(a, "@") && !strings.Contains(a, " "):
			out = append(out, Arg{Tag: Host, Value: a})
		default:
			out = append(out, Arg{Tag: Positional, Value: a})
		}
	}
	return out
}

// Values returns the values tagged t, in order.
func (a Args) Values(t Tag) []string {
	var out []string
	for _, arg := range a {
		if arg.Tag == t {
			out = append(out, arg.Value)
		}
	}
	return out
}

// Flags returns the passthrough flags.
func (a Args) Flags() []string { return a.Values(Flag) }

// Vars returns the variables; a later assignment overrides an earlier one.
func (a Args) Vars() map[string]any {
	vars := make(map[string]any)
	for _, arg := range a {
		if arg.Tag == Var {
			vars[arg.Key] = arg.Value
		}
	}
	return vars
}

// HasFlag reports whether name appears among the flags.
func (a Args) HasFlag(name string) bool {
	for _, f := range a.Flags() {
		if f == name {
			return true
		}
	}
	return false
}

// WithoutFlag returns a copy of a with every flag equal to name removed.
func (a Args) WithoutFlag(name string) Args {
	out := make(Args, 0, len(a))
	for _, arg := range a {
		if arg.Tag == Flag && arg.Value == name {
			continue
		}
		out = append(out, arg)
	}
	return out
}

// Hosts returns the explicit user@host arguments, splitting
// comma-separated lists.
func (a Args) Hosts() []string {
	return a.hosts(Host)
}

// HostList returns explicit hosts plus positionals, splitting
// comma-separated lists. Used by commands where every bare word after the
// source is a target host.
func (a Args) HostList() []string {
	return a.hosts(Host, Positional)
}

func (a Args) hosts(tags ...Tag) []string {
	var out []string
	for _, arg := range a {
		if !hasTag(tags, arg.Tag) {
			continue
		}
		for _, h := range strings.Split(arg.Value, ",") {
			if h = strings.TrimSpace(h); h != "" {
				out = append(out, h)
			}
		}
	}
	return out
}

func hasTag(tags []Tag, t Tag) bool {
	for _, x := range tags {
		if x == t {
			return true
		}
	}
	return false
}
