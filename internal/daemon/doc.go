// Package daemon hosts the long-running Packshot process: single-instance
// locking, the HTTP API, and run lifecycle control on top of the runner.
package daemon
