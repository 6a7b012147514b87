// Package client talks to the workboard REST API on behalf of the CLI.
//
// APIClient keeps the current session (user id, role and the token pair)
// in memory. Calls that need a bearer token transparently rotate the pair
// once when the server answers 401 and then retry the request.
//
// Errors
//
// Transport failures wrap ErrUnavailable, rejected credentials wrap
// ErrUnauthorized and calls made without a session return ErrNotLoggedIn.
// Any other non-2xx answer is a *netx.StatusError carrying the server's
// error code and message.
package client
