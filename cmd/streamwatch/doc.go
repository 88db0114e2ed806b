// Command streamwatch is the operator CLI for the streamwatch daemon. All
// commands talk to the daemon HTTP API; pass --api to target a daemon
// without loading local configuration.
package main
