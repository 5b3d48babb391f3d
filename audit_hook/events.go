package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle
// hook and becomes the Action field of the audit event.
const (
	ActionTaskSubmitted = "task.submitted"
	ActionTaskStarted   = "task.started"
	ActionTaskCompleted = "task.completed"
	ActionTaskFailed    = "task.failed"
	ActionTaskRetrying  = "task.retrying"
	ActionTaskCancelled = "task.cancelled"
)

// CategoryTask groups all task lifecycle actions.
const CategoryTask = "taskpool.task"

// ResourceTask is the Resource field used in task audit events.
const ResourceTask = "task"

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionTaskSubmitted,
		ActionTaskStarted,
		ActionTaskCompleted,
		ActionTaskFailed,
		ActionTaskRetrying,
		ActionTaskCancelled,
	}
}
