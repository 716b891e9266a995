// Package ipc exposes daemon control over JSON-RPC on a Unix domain socket.
//
// The CLI is the primary client: it starts and stops runs, polls status, and
// tails the run event stream without going through the HTTP API.
package ipc
