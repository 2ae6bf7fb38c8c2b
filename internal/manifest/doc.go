// Package manifest parses the YAML files the Ansible ecosystem owns and
// bigsudo reads: Galaxy requirements manifests (requirements.yml, list form
// or the roles/collections mapping form) and role metadata (meta/main.yml).
// Requirements manifests can also be validated against an embedded JSON
// Schema.
package manifest
