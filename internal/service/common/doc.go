// Package common holds helpers shared by the CLI commands.
//
// It provides an HTTP client wrapper for the dispatch server API with
// timeouts and bearer-token handling, plus a utility to detect the caller
// identity (username@hostname) for audit purposes.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
