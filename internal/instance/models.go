package instance

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of an orchestration instance.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Step outcome values recorded per stage.
const (
	StepCompleted = "completed"
	StepFailed    = "failed"
)

// OrchestrationStep names the pseudo-stage used for framework-level failures.
const OrchestrationStep = "orchestration"

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further mutation.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from one status to another preserves
// the monotonic lifecycle. Same-status writes are permitted so resumed
// executions stay idempotent.
func CanTransition(from, to Status) bool {
	if from == to {
		return !from.IsTerminal()
	}
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusCompleted || to == StatusFailed
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// StepRecord is the durable record of one stage's outcome.
type StepRecord struct {
	Name      string
	Status    string
	Result    json.RawMessage
	Timestamp time.Time
}

// ErrorRecord captures one failure observed during execution.
type ErrorRecord struct {
	Step      string
	Message   string
	Timestamp time.Time
}

// Record is one orchestration instance as persisted in the store.
type Record struct {
	InstanceID   string
	VideoName    string
	Input        json.RawMessage
	Status       Status
	CustomStatus string
	Output       json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	EndedAt      *time.Time
	Steps        []StepRecord
	Errors       []ErrorRecord
}

// IsTerminal reports whether the record is in a terminal state.
func (r *Record) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// StepFor returns the recorded outcome for a stage, if any.
func (r *Record) StepFor(name string) (*StepRecord, bool) {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i], true
		}
	}
	return nil, false
}

// ProcessingDuration returns the elapsed wall-clock time between creation
// and the last recorded update, including any time spent waiting in the
// pending queue. The boolean is false while the instance is still pending.
func (r *Record) ProcessingDuration() (time.Duration, bool) {
	if r.Status == StatusPending {
		return 0, false
	}
	if r.UpdatedAt.Before(r.CreatedAt) {
		return 0, false
	}
	return r.UpdatedAt.Sub(r.CreatedAt), true
}
