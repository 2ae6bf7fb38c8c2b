// Package inventory builds the ansible-playbook argument list for an
// ad-hoc set of target hosts: the comma-terminated inline inventory, the
// remote user, connection mode, SSH multiplexing options, privilege
// escalation and extra variables.
package inventory
