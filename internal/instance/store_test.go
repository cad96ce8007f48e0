package instance_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"vidflow/internal/instance"
	"vidflow/internal/testsupport"
)

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.NewInstance(t, store, "inst-1", "demo.mp4")
	if record.Status != instance.StatusPending {
		t.Fatalf("expected pending status, got %s", record.Status)
	}
	if record.VideoName != "demo.mp4" {
		t.Fatalf("unexpected video name %q", record.VideoName)
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.Before(record.CreatedAt) {
		t.Fatalf("timestamp invariant violated: created=%v updated=%v", record.CreatedAt, record.UpdatedAt)
	}

	fetched, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var input map[string]any
	if err := json.Unmarshal(fetched.Input, &input); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	if input["blob_name"] != "demo.mp4" {
		t.Fatalf("input not preserved: %v", input)
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")
	_, err := store.Create(context.Background(), "inst-1", "other.mp4", nil)
	if !errors.Is(err, instance.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUnknownInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, instance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendStepPreservesOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")

	names := []string{"extract-metadata", "analyze-content", "generate-embeddings"}
	for i, name := range names {
		step := instance.StepRecord{
			Name:   name,
			Status: instance.StepCompleted,
			Result: json.RawMessage(fmt.Sprintf(`{"step":%d}`, i)),
		}
		if err := store.AppendStep(ctx, "inst-1", step); err != nil {
			t.Fatalf("AppendStep %s failed: %v", name, err)
		}
	}

	record, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(record.Steps) != len(names) {
		t.Fatalf("expected %d steps, got %d", len(names), len(record.Steps))
	}
	for i, name := range names {
		if record.Steps[i].Name != name {
			t.Fatalf("step %d: expected %s, got %s", i, name, record.Steps[i].Name)
		}
	}
}

func TestAppendStepRejectsDuplicateStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")

	step := instance.StepRecord{Name: "extract-metadata", Status: instance.StepCompleted}
	if err := store.AppendStep(ctx, "inst-1", step); err != nil {
		t.Fatalf("AppendStep failed: %v", err)
	}
	if err := store.AppendStep(ctx, "inst-1", step); !errors.Is(err, instance.ErrDuplicateStep) {
		t.Fatalf("expected ErrDuplicateStep, got %v", err)
	}
}

func TestSetStatusMonotonic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")

	if err := store.SetStatus(ctx, "inst-1", instance.StatusRunning); err != nil {
		t.Fatalf("pending -> running failed: %v", err)
	}
	// Idempotent re-write during a resumed execution.
	if err := store.SetStatus(ctx, "inst-1", instance.StatusRunning); err != nil {
		t.Fatalf("running -> running should be a no-op: %v", err)
	}
	if err := store.SetStatus(ctx, "inst-1", instance.StatusPending); !errors.Is(err, instance.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition going backwards, got %v", err)
	}
	if err := store.SetStatus(ctx, "inst-1", instance.StatusCompleted); err != nil {
		t.Fatalf("running -> completed failed: %v", err)
	}

	record, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.StartedAt == nil || record.EndedAt == nil {
		t.Fatalf("expected start and end timestamps, got %+v", record)
	}
}

func TestTerminalStateRejectsAllMutations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for _, terminal := range []instance.Status{instance.StatusCompleted, instance.StatusFailed} {
		id := "inst-" + string(terminal)
		testsupport.NewInstance(t, store, id, "demo.mp4")
		if err := store.SetStatus(ctx, id, instance.StatusRunning); err != nil {
			t.Fatalf("to running: %v", err)
		}
		if err := store.SetStatus(ctx, id, terminal); err != nil {
			t.Fatalf("to %s: %v", terminal, err)
		}

		if err := store.AppendStep(ctx, id, instance.StepRecord{Name: "extract-metadata"}); !errors.Is(err, instance.ErrTerminalState) {
			t.Errorf("%s: AppendStep expected ErrTerminalState, got %v", terminal, err)
		}
		if err := store.AppendError(ctx, id, instance.ErrorRecord{Message: "late"}); !errors.Is(err, instance.ErrTerminalState) {
			t.Errorf("%s: AppendError expected ErrTerminalState, got %v", terminal, err)
		}
		if err := store.SetStatus(ctx, id, instance.StatusRunning); !errors.Is(err, instance.ErrTerminalState) {
			t.Errorf("%s: SetStatus expected ErrTerminalState, got %v", terminal, err)
		}
		if err := store.SetCustomStatus(ctx, id, "late"); !errors.Is(err, instance.ErrTerminalState) {
			t.Errorf("%s: SetCustomStatus expected ErrTerminalState, got %v", terminal, err)
		}
	}
}

func TestAppendErrorAndFailureBookkeeping(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")
	if err := store.SetStatus(ctx, "inst-1", instance.StatusRunning); err != nil {
		t.Fatalf("to running: %v", err)
	}
	errRecord := instance.ErrorRecord{
		Step:    "generate-embeddings",
		Message: "embeddings generation failed: rate limited",
	}
	if err := store.AppendError(ctx, "inst-1", errRecord); err != nil {
		t.Fatalf("AppendError failed: %v", err)
	}
	if err := store.SetStatus(ctx, "inst-1", instance.StatusFailed); err != nil {
		t.Fatalf("to failed: %v", err)
	}

	record, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Status != instance.StatusFailed {
		t.Fatalf("expected failed, got %s", record.Status)
	}
	if len(record.Errors) != 1 || record.Errors[0].Step != "generate-embeddings" {
		t.Fatalf("unexpected errors: %+v", record.Errors)
	}
}

func TestListRecentAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.NewInstance(t, store, fmt.Sprintf("inst-%d", i), fmt.Sprintf("clip-%d.mp4", i))
		time.Sleep(2 * time.Millisecond)
	}
	if err := store.SetStatus(ctx, "inst-0", instance.StatusRunning); err != nil {
		t.Fatalf("to running: %v", err)
	}

	recent, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(recent))
	}
	if recent[0].InstanceID != "inst-2" {
		t.Fatalf("expected newest first, got %s", recent[0].InstanceID)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[instance.StatusPending] != 2 || stats[instance.StatusRunning] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	pending, err := store.InstancesByStatus(ctx, instance.StatusPending)
	if err != nil {
		t.Fatalf("InstancesByStatus failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
}

func TestSetCustomStatusAndOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")
	if err := store.SetCustomStatus(ctx, "inst-1", "stage 2 of 5: analyze-content"); err != nil {
		t.Fatalf("SetCustomStatus failed: %v", err)
	}
	if err := store.SetOutput(ctx, "inst-1", json.RawMessage(`{"status":"completed"}`)); err != nil {
		t.Fatalf("SetOutput failed: %v", err)
	}

	record, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.CustomStatus != "stage 2 of 5: analyze-content" {
		t.Fatalf("unexpected custom status %q", record.CustomStatus)
	}
	if len(record.Output) == 0 {
		t.Fatal("expected output to be stored")
	}
}
