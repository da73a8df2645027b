// Package tracing wraps OpenTelemetry so that the scheduler, executor and
// step handlers open spans through two helpers (StartSpan, EndSpan) without
// importing the upstream packages.
package tracing
