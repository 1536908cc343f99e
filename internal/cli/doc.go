// Package cli builds the tunegrid command tree on cobra. It merges an optional
// YAML config file with command-line flags, validates the result, and maps
// failures to process exit codes through ExitError. Subcommands print JSON
// documents to stdout and log to stderr.
package cli
