// Package config loads vendorsync's configuration.
//
// Sources are layered from lowest to highest precedence: the defaults
// compiled into the binary, the user config file (TOML, or YAML by
// extension), VENDORSYNC_* environment variables and command-line flags.
// The result is an immutable Config passed by parameter to every component.
package config
