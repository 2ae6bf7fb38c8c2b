// Package platform wraps the filesystem operations bigsudo needs to place
// local roles into the Ansible roles path: directory symlinks, link
// inspection and removal, and permission changes that are no-ops on
// Windows.
package platform
