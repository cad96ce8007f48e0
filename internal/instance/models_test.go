package instance

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusPending, false},
		{StatusCompleted, StatusRunning, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusRunning, false},
		{StatusPending, StatusPending, true},
		{StatusRunning, StatusRunning, true},
		{StatusCompleted, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if got, ok := ParseStatus("running"); !ok || got != StatusRunning {
		t.Fatalf("ParseStatus(running) = %v, %v", got, ok)
	}
	if _, ok := ParseStatus("bogus"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestProcessingDuration(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	record := Record{Status: StatusPending, CreatedAt: created, UpdatedAt: created}
	if _, ok := record.ProcessingDuration(); ok {
		t.Fatal("pending instance should report no duration")
	}

	started := created.Add(time.Second)
	ended := started.Add(12*time.Second + 500*time.Millisecond)
	record.Status = StatusCompleted
	record.StartedAt = &started
	record.EndedAt = &ended
	record.UpdatedAt = ended
	d, ok := record.ProcessingDuration()
	if !ok || d != ended.Sub(created) {
		t.Fatalf("duration = %v, ok=%v", d, ok)
	}
}

func TestProcessingDurationIncludesQueueWait(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	started := created.Add(90 * time.Second)
	ended := started.Add(10 * time.Second)

	record := Record{
		Status:    StatusCompleted,
		CreatedAt: created,
		UpdatedAt: ended,
		StartedAt: &started,
		EndedAt:   &ended,
	}
	d, ok := record.ProcessingDuration()
	if !ok || d != 100*time.Second {
		t.Fatalf("duration = %v, ok=%v, want 100s spanning creation to last update", d, ok)
	}
}

func TestStepFor(t *testing.T) {
	record := Record{
		Steps: []StepRecord{
			{Name: "extract-metadata", Status: StepCompleted},
			{Name: "analyze-content", Status: StepCompleted},
		},
	}
	if step, ok := record.StepFor("analyze-content"); !ok || step.Name != "analyze-content" {
		t.Fatalf("StepFor returned %+v, ok=%v", step, ok)
	}
	if step, ok := record.StepFor("generate-insights"); ok {
		t.Fatalf("expected miss, got %+v", step)
	}
}
