// Package apiclient provides HTTP access to a running streamwatch daemon.
// The CLI uses it for every command that inspects or drives the pipeline;
// responses are the wire DTOs from the api package.
package apiclient
