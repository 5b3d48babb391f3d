// Package audithook is a taskpool extension that bridges lifecycle
// events to an audit trail backend.
//
// Every task lifecycle hook emits a structured audit event through the
// [Recorder] interface. The extension assigns appropriate severity
// levels (info for normal operations, warning for retries, critical for
// terminal failures) and rich metadata (task name, priority, elapsed
// time, errors).
//
// # Usage
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return auditBackend.Write(ctx, evt.Action, evt.ResourceID, evt.Metadata)
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionTaskFailed,
//	        audithook.ActionTaskCancelled,
//	    ),
//	)
package audithook
