// Package executor runs a single step: it resolves the handler for the step
// type, enforces the execution policy, expands the step config against the
// data bag and applies the step retry and timeout settings.
package executor
