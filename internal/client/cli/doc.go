// Package cli implements the interactive command-line client.
//
// It wraps the api.Client in a small REPL: the user registers or logs in,
// the token pair is held in memory for the session, and subsequent commands
// (whoami, refresh, logout) reuse it. No credentials are persisted on disk.
package cli
