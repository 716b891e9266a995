// Command packshot is the CLI for the product asset retrieval service. It
// runs one-shot retrievals, controls the background daemon over its Unix
// socket, and inspects retailer policies and configuration.
package main
