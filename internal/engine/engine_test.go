package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"vidflow/internal/activity"
	"vidflow/internal/engine"
	"vidflow/internal/instance"
	"vidflow/internal/services"
	"vidflow/internal/stages"
	"vidflow/internal/testsupport"
)

// stubActivities registers a counting activity for every stage, with
// optional per-stage failures.
type stubActivities struct {
	mu     sync.Mutex
	calls  map[string]int
	fail   map[string]error
	result map[string]string
}

func newStubActivities() *stubActivities {
	return &stubActivities{
		calls: make(map[string]int),
		fail:  make(map[string]error),
		result: map[string]string{
			stages.StageExtractMetadata:    `{"file_info":{"blob_name":"demo.mp4","size_mb":12}}`,
			stages.StageAnalyzeContent:     `{"analysis_id":"analysis_1","video_name":"demo.mp4"}`,
			stages.StageGenerateEmbeddings: `{"embeddings":{},"embedding_model":"text-embedding-ada-002"}`,
			stages.StageStoreInSearch:      `{"document_id":"video_demo_mp4_1000","index_name":"videos","status":"succeeded"}`,
			stages.StageGenerateInsights:   `{"search_document_id":"video_demo_mp4_1000"}`,
		},
	}
}

func (s *stubActivities) registry() *activity.Registry {
	registry := activity.NewRegistry()
	for _, name := range stages.Names() {
		stageName := name
		registry.Register(stageName, func(ctx context.Context, input activity.Payload) (activity.Payload, error) {
			s.mu.Lock()
			s.calls[stageName]++
			failErr := s.fail[stageName]
			result := s.result[stageName]
			s.mu.Unlock()
			if failErr != nil {
				return nil, failErr
			}
			return activity.Payload(result), nil
		})
	}
	return registry
}

func (s *stubActivities) callCount(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[stage]
}

func newTestEngine(t *testing.T, stubs *stubActivities) (*engine.Engine, *instance.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return engine.New(store, stubs.registry(), nil), store
}

func TestRunExecutesAllStagesInOrder(t *testing.T) {
	stubs := newStubActivities()
	eng, store := newTestEngine(t, stubs)
	ctx := context.Background()

	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")
	if err := eng.Run(ctx, "inst-1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	record, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Status != instance.StatusCompleted {
		t.Fatalf("status = %s", record.Status)
	}
	want := stages.Names()
	if len(record.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(record.Steps))
	}
	for i, name := range want {
		if record.Steps[i].Name != name {
			t.Errorf("step %d = %s, want %s", i, record.Steps[i].Name, name)
		}
		if record.Steps[i].Status != instance.StepCompleted {
			t.Errorf("step %s status = %s", name, record.Steps[i].Status)
		}
		if stubs.callCount(name) != 1 {
			t.Errorf("stage %s invoked %d times", name, stubs.callCount(name))
		}
	}

	var output map[string]any
	if err := json.Unmarshal(record.Output, &output); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if output["video_name"] != "demo.mp4" {
		t.Errorf("output video_name = %v", output["video_name"])
	}
	if output["search_document_id"] != "video_demo_mp4_1000" {
		t.Errorf("output search_document_id = %v", output["search_document_id"])
	}
	if _, ok := output["processing_duration_seconds"]; !ok {
		t.Error("output missing processing_duration_seconds")
	}
	if record.EndedAt == nil {
		t.Error("expected end time recorded")
	}
}

func TestRunReplaysRecordedStages(t *testing.T) {
	stubs := newStubActivities()
	eng, store := newTestEngine(t, stubs)
	ctx := context.Background()

	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")
	if err := store.SetStatus(ctx, "inst-1", instance.StatusRunning); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	// Simulate a crash after the first two stages completed.
	for _, name := range stages.Names()[:2] {
		if err := store.AppendStep(ctx, "inst-1", instance.StepRecord{
			Name:   name,
			Status: instance.StepCompleted,
			Result: json.RawMessage(stubs.result[name]),
		}); err != nil {
			t.Fatalf("seed step %s: %v", name, err)
		}
	}

	if err := eng.Run(ctx, "inst-1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, name := range stages.Names() {
		wantCalls := 1
		if i < 2 {
			wantCalls = 0
		}
		if got := stubs.callCount(name); got != wantCalls {
			t.Errorf("stage %s invoked %d times, want %d", name, got, wantCalls)
		}
	}

	record, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Status != instance.StatusCompleted {
		t.Fatalf("status = %s", record.Status)
	}
	if len(record.Steps) != len(stages.Names()) {
		t.Fatalf("expected full step history, got %d", len(record.Steps))
	}
}

func TestRunFailureShortCircuits(t *testing.T) {
	stubs := newStubActivities()
	stubs.fail[stages.StageGenerateEmbeddings] = services.Wrap(
		services.ErrExternalService, stages.StageGenerateEmbeddings, "embed", "rate limited", nil)
	eng, store := newTestEngine(t, stubs)
	ctx := context.Background()

	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")
	if err := eng.Run(ctx, "inst-1"); err == nil {
		t.Fatal("expected Run to surface the stage failure")
	}

	record, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Status != instance.StatusFailed {
		t.Fatalf("status = %s", record.Status)
	}
	if len(record.Errors) == 0 {
		t.Fatal("expected an error record")
	}
	if record.Errors[0].Step != stages.StageGenerateEmbeddings {
		t.Errorf("error step = %s", record.Errors[0].Step)
	}
	if record.EndedAt == nil {
		t.Error("expected end time recorded on failure")
	}

	for _, name := range []string{stages.StageStoreInSearch, stages.StageGenerateInsights} {
		if stubs.callCount(name) != 0 {
			t.Errorf("stage %s invoked after failure", name)
		}
	}

	// The failed stage itself is recorded after the two completed ones.
	if len(record.Steps) != 3 {
		t.Fatalf("expected 3 recorded steps, got %d", len(record.Steps))
	}
	if record.Steps[2].Name != stages.StageGenerateEmbeddings || record.Steps[2].Status != instance.StepFailed {
		t.Errorf("unexpected final step: %+v", record.Steps[2])
	}
}

func TestRunTerminalInstanceIsNoop(t *testing.T) {
	stubs := newStubActivities()
	eng, store := newTestEngine(t, stubs)
	ctx := context.Background()

	testsupport.NewInstance(t, store, "inst-1", "demo.mp4")
	if err := store.SetStatus(ctx, "inst-1", instance.StatusCompleted); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	if err := eng.Run(ctx, "inst-1"); err != nil {
		t.Fatalf("Run on terminal instance: %v", err)
	}
	for _, name := range stages.Names() {
		if stubs.callCount(name) != 0 {
			t.Errorf("stage %s invoked for terminal instance", name)
		}
	}
}

func TestRunUnknownInstance(t *testing.T) {
	stubs := newStubActivities()
	eng, _ := newTestEngine(t, stubs)

	err := eng.Run(context.Background(), "missing")
	if !errors.Is(err, instance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
