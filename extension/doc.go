// Package extension holds the run-time registry of named automation
// integrations invoked by automation steps.
//
// The registry is normally populated through the root procflow options,
// therefore most applications do not need to import this package directly.
package extension
