// Package cli defines the cascade-tools command tree.
//
// Each subcommand starts from the loaded config.Config and applies only the
// flags the user actually set, so a config file and flags can be mixed.
package cli
