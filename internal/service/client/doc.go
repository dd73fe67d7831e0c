// Package client implements the dispatch-cli operations.
//
// Each operation loads the shared settings file, connects to the dispatch
// server over HTTP and performs a single API call, printing the resulting
// record as JSON on stdout.
package client
