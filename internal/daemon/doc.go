// Package daemon coordinates the long-running streamwatch process. It
// enforces single-instance execution through a file lock, owns the pipeline
// manager lifecycle, and serves the HTTP API that the CLI and external
// reporters talk to.
//
// The API binds to Paths.APIBind and optionally requires a bearer token
// (Paths.APIToken). An empty token leaves the API open, which is only
// appropriate for loopback binds.
package daemon
