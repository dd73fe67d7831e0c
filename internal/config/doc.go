// Package config defines settings used by the dispatch binaries and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type holds the HTTP listen address, the coordinator state file
// path, the admin identity and the token secrets. Secret fields can be
// overridden via environment variables (optionally from a .env file) so they
// stay out of committed settings files.
package config
