// Package observability provides an extension that exports task
// lifecycle counters through OpenTelemetry.
package observability
