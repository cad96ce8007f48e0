package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"vidflow/internal/instance"
	"vidflow/internal/logging"
)

// View is the client-facing projection of an orchestration instance.
type View struct {
	InstanceID         string          `json:"instance_id"`
	RuntimeStatus      string          `json:"runtime_status"`
	CreatedTime        string          `json:"created_time"`
	LastUpdatedTime    string          `json:"last_updated_time"`
	ProcessingDuration string          `json:"processing_duration,omitempty"`
	VideoInfo          json.RawMessage `json:"video_info,omitempty"`
	Output             json.RawMessage `json:"output,omitempty"`
	CustomStatus       string          `json:"custom_status,omitempty"`
	Errors             []ErrorView     `json:"errors,omitempty"`
	ExecutionHistory   []HistoryEvent  `json:"execution_history,omitempty"`
}

// HistoryEvent is one recorded step in execution order.
type HistoryEvent struct {
	Name      string          `json:"name"`
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// ErrorView is one recorded failure.
type ErrorView struct {
	Step      string `json:"step"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NotSupported is the explicit answer for lookups the service cannot do.
type NotSupported struct {
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// Service projects stored instances into status views.
type Service struct {
	store  *instance.Store
	logger *slog.Logger
}

func NewService(store *instance.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{store: store, logger: logging.NewComponentLogger(logger, "status")}
}

// GetStatus returns the view for one instance. instance.ErrNotFound
// passes through for unknown ids.
func (s *Service) GetStatus(ctx context.Context, instanceID string, includeHistory bool) (*View, error) {
	record, err := s.store.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	view := buildView(record, includeHistory)
	return &view, nil
}

// ListRecent returns views for the most recently created instances,
// newest first. History is omitted from listings.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]View, error) {
	records, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(records))
	for _, record := range records {
		views = append(views, buildView(record, false))
	}
	return views, nil
}

// FindByVideoName reports the documented limitation: instances are keyed
// by id only, and a name lookup would need a secondary index this
// service does not keep.
func (s *Service) FindByVideoName(videoName string) NotSupported {
	return NotSupported{
		Message:    fmt.Sprintf("search by video name %q is not supported", videoName),
		Suggestion: "use the instance id returned when processing started, or list recent instances",
	}
}

func buildView(record *instance.Record, includeHistory bool) View {
	view := View{
		InstanceID:      record.InstanceID,
		RuntimeStatus:   string(record.Status),
		CreatedTime:     record.CreatedAt.UTC().Format(time.RFC3339),
		LastUpdatedTime: record.UpdatedAt.UTC().Format(time.RFC3339),
		VideoInfo:       record.Input,
		CustomStatus:    record.CustomStatus,
	}

	if duration, ok := record.ProcessingDuration(); ok {
		view.ProcessingDuration = fmt.Sprintf("%.1f seconds", duration.Seconds())
	}
	if record.Status == instance.StatusCompleted && len(record.Output) > 0 {
		view.Output = record.Output
	}

	for _, errRecord := range record.Errors {
		view.Errors = append(view.Errors, ErrorView{
			Step:      errRecord.Step,
			Message:   errRecord.Message,
			Timestamp: errRecord.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	if includeHistory {
		for _, step := range record.Steps {
			view.ExecutionHistory = append(view.ExecutionHistory, HistoryEvent{
				Name:      step.Name,
				Status:    step.Status,
				Timestamp: step.Timestamp.UTC().Format(time.RFC3339),
				Result:    step.Result,
			})
		}
	}
	return view
}
