// Package cli implements the interactive terminal client. It keeps the
// session in a persisted credential store, talks to the backend through the
// refreshing API client, and exposes the account operations as REPL
// commands.
package cli
