// Package apply turns a role, task file or playbook reference plus target
// hosts into one ansible-playbook invocation.
//
// Roles and task files are applied through small playbooks embedded in the
// binary and written to the config directory on first use. Missing roles
// are installed through the galaxy package first; remote task files and
// playbooks are downloaded into the working directory.
package apply
