// Package config loads runtime settings for the CLI client.
//
// Configuration is assembled in three stages, each overriding the previous:
// built-in defaults, an optional JSON file (-c/-config) and command-line flags.
package config
