// Package cli provides the interactive command-line client for the auth API.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// Commands map one-to-one onto the API:
//
//	register, login, logout, me, addresses, addaddress, deladdress <id>, ping
//
// The session cookie lives in the HTTP client's cookie jar for the lifetime
// of the process, so nothing is persisted to disk.
package cli
