// Package engine wires all taskpool subsystems together. It owns the
// in-memory task table, the bounded priority queue, the worker loops,
// and the executor state machine, and exposes the
// Submit/Enqueue/Status/Cancel/Stats/Start/Stop surface.
//
// This package sits above all subsystem packages (task, queue, backoff,
// middleware, ext, observability) and below the application layer.
package engine
