// Package config manages user-level settings stored at ~/.bigsudo/config.yaml.
// Every key can also be supplied through a BIGSUDO_<KEY> environment
// variable. Settings resolves the loaded values into the typed form consumed
// by the inventory builder, the galaxy installer and the apply commands.
package config
