// Package task defines the core task model: the Task record and its
// Status state machine, the Priority levels and their dequeue ranks, the
// strongly typed Work abstraction captured at submission time, and the
// typed Definition/Registry pair for named, JSON-payload task types.
//
// Status transitions are monotonic: pending → running →
// {completed, failed, cancelled}, plus pending → cancelled for tasks
// cancelled before they ever run. A failed attempt with retry budget
// remaining returns the task to pending; failed is terminal only once
// the budget is exhausted.
package task
