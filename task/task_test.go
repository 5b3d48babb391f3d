package task_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pondworks/taskpool/id"
	"github.com/pondworks/taskpool/task"
)

func TestPriority_Rank(t *testing.T) {
	tests := []struct {
		priority task.Priority
		rank     int
	}{
		{task.PriorityCritical, 1},
		{task.PriorityHigh, 2},
		{task.PriorityNormal, 3},
		{task.PriorityLow, 4},
	}
	for _, tt := range tests {
		t.Run(tt.priority.String(), func(t *testing.T) {
			if got := tt.priority.Rank(); got != tt.rank {
				t.Errorf("Rank() = %d, want %d", got, tt.rank)
			}
		})
	}
}

func TestPriority_RankOrdersHigherFirst(t *testing.T) {
	// Lower rank dequeues first, so higher priority must map to lower rank.
	if task.PriorityCritical.Rank() >= task.PriorityLow.Rank() {
		t.Errorf("critical rank %d not below low rank %d",
			task.PriorityCritical.Rank(), task.PriorityLow.Rank())
	}
}

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status   task.Status
		terminal bool
	}{
		{task.StatusPending, false},
		{task.StatusRunning, false},
		{task.StatusCompleted, true},
		{task.StatusFailed, true},
		{task.StatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestTask_SnapshotDoesNotAliasTimestamps(t *testing.T) {
	started := time.Now().UTC()
	completed := started.Add(time.Second)
	tk := &task.Task{
		ID:          id.NewTaskID(),
		Name:        "resize",
		Status:      task.StatusCompleted,
		CreatedAt:   started.Add(-time.Second),
		StartedAt:   &started,
		CompletedAt: &completed,
		Result:      42,
	}

	snap := tk.Snapshot()

	// Mutating the live record must not leak into the snapshot.
	*tk.StartedAt = tk.StartedAt.Add(time.Hour)
	tk.Status = task.StatusFailed

	if !snap.StartedAt.Equal(started) {
		t.Errorf("snapshot StartedAt mutated: %v", snap.StartedAt)
	}
	if snap.Status != task.StatusCompleted {
		t.Errorf("snapshot Status mutated: %v", snap.Status)
	}
	if snap.Result != 42 {
		t.Errorf("Result = %v, want 42", snap.Result)
	}
}

func TestFunc_ImplementsWork(t *testing.T) {
	f := task.Func(func(_ context.Context) (any, error) {
		return "hello", nil
	})

	got, err := f.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "hello" {
		t.Errorf("Execute() = %v, want hello", got)
	}
}

func TestDefaultOptions_DeferToEngine(t *testing.T) {
	o := task.DefaultOptions()
	if o.Priority != task.PriorityNormal {
		t.Errorf("Priority = %v, want normal", o.Priority)
	}
	if o.MaxRetries >= 0 {
		t.Errorf("MaxRetries = %d, want negative (engine default)", o.MaxRetries)
	}
	if o.Timeout >= 0 {
		t.Errorf("Timeout = %v, want negative (engine default)", o.Timeout)
	}
}

func TestOptions_Functional(t *testing.T) {
	o := task.DefaultOptions()
	for _, opt := range []task.Option{
		task.WithName("cleanup"),
		task.WithPriority(task.PriorityCritical),
		task.WithMaxRetries(5),
		task.WithTimeout(30 * time.Second),
	} {
		opt(&o)
	}

	if o.Name != "cleanup" {
		t.Errorf("Name = %q, want cleanup", o.Name)
	}
	if o.Priority != task.PriorityCritical {
		t.Errorf("Priority = %v, want critical", o.Priority)
	}
	if o.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", o.MaxRetries)
	}
	if o.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", o.Timeout)
	}
}

type emailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
}

func TestRegistry_RegisterAndInvoke(t *testing.T) {
	reg := task.NewRegistry()
	def := task.NewDefinition("send-email",
		func(_ context.Context, p emailPayload) (any, error) {
			return "sent to " + p.To, nil
		},
		task.WithPriority(task.PriorityHigh),
	)
	task.RegisterDefinition(reg, def)

	handler, ok := reg.Get("send-email")
	if !ok {
		t.Fatal("handler not found after registration")
	}

	got, err := handler(context.Background(), []byte(`{"to":"user@example.com","subject":"hi"}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got != "sent to user@example.com" {
		t.Errorf("handler result = %v", got)
	}

	opts, ok := reg.Options("send-email")
	if !ok {
		t.Fatal("options not found after registration")
	}
	if opts.Priority != task.PriorityHigh {
		t.Errorf("Options priority = %v, want high", opts.Priority)
	}
}

func TestRegistry_MalformedPayload(t *testing.T) {
	reg := task.NewRegistry()
	task.RegisterDefinition(reg, task.NewDefinition("send-email",
		func(_ context.Context, _ emailPayload) (any, error) {
			return nil, nil
		},
	))

	handler, _ := reg.Get("send-email")
	if _, err := handler(context.Background(), []byte(`{not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestRegistry_EmptyPayloadSkipsUnmarshal(t *testing.T) {
	reg := task.NewRegistry()
	task.RegisterDefinition(reg, task.NewDefinition("noop",
		func(_ context.Context, p emailPayload) (any, error) {
			if p.To != "" {
				return nil, errors.New("expected zero payload")
			}
			return "ok", nil
		},
	))

	handler, _ := reg.Get("noop")
	got, err := handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got != "ok" {
		t.Errorf("handler result = %v, want ok", got)
	}
}

func TestRegistry_UnknownName(t *testing.T) {
	reg := task.NewRegistry()
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get returned true for unregistered name")
	}
	if _, ok := reg.Options("missing"); ok {
		t.Error("Options returned true for unregistered name")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := task.NewRegistry()
	task.RegisterDefinition(reg, task.NewDefinition("a", func(_ context.Context, _ struct{}) (any, error) { return nil, nil }))
	task.RegisterDefinition(reg, task.NewDefinition("b", func(_ context.Context, _ struct{}) (any, error) { return nil, nil }))

	names := reg.Names()
	if len(names) != 2 {
		t.Errorf("Names() = %v, want 2 entries", names)
	}
}
