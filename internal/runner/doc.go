// Package runner spawns external commands (ansible-playbook, ansible-galaxy,
// sudo) either streamed through the invoking process's standard streams or
// with captured output. A non-zero exit status is reported through
// Output.ExitCode and is not an error; errors mean the process could not be
// started at all.
package runner
