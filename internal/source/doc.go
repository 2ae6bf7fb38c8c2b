// Package source classifies role, task-file and playbook references.
//
// A reference is resolved by precedence: an existing local path, then an
// http(s) URL (optionally "scheme+url,ref"), then a git-like "host/owner/repo"
// spec, and finally a bare Galaxy name. Resolution never fails; references
// that match nothing more specific fall through to the Galaxy kind.
package source
