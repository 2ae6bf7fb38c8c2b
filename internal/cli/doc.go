// Package cli defines the Cobra command tree for bigsudo. Each file in this
// package registers one top-level command (role, tasks, playbook, run,
// roleinstall, etc.) with the root command. Command implementations delegate
// to internal packages for the real work and only handle argument parsing,
// output formatting and exit codes.
package cli
