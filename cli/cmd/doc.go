// Package cmd implements the flk subcommands. Each command parses its FL file
// with a fresh [lang.Parser] configured from the context set up by package cli.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the FL configuration file.
	ConfigIdentifier = "config"
)
