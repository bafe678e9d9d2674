// Package config loads cascade-tools settings from a YAML file.
//
// Every field has a default taken from the capture rig and detector the
// tools were built for, so a config file only needs the values that differ.
// Command-line flags are applied on top by the cli package.
package config
