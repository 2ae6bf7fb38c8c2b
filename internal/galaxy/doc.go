// Package galaxy installs role dependencies through ansible-galaxy.
//
// An Installer owns a Cache of the roles ansible-galaxy already knows
// about, loaded lazily from `ansible-galaxy list` the first time a lookup
// needs it. Roles come from local directories (symlinked into the roles
// path), git specs (SSH clone first, HTTPS fallback), URLs or bare Galaxy
// names. A role's own requirements.yml is installed recursively.
package galaxy
