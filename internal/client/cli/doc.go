// Package cli provides the interactive workboard command-line client.
//
// It wires configuration and the REST API client into a REPL. The token
// pair lives only in memory and is lost when the program exits.
//
// Commands:
//   - register / login / refresh / logout
//   - whoami: confirm the session against the server
//   - items [page]: list work items visible to the user
//   - add: create a work item
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
