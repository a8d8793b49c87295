// Package config loads the CLI configuration from defaults, an optional
// JSON file, environment variables, and command-line flags, in that order of
// precedence.
package config
