package starter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"vidflow/internal/instance"
	"vidflow/internal/logging"
)

// Starter turns trigger events into pending orchestration instances.
type Starter struct {
	store  *instance.Store
	logger *slog.Logger
}

func New(store *instance.Store, logger *slog.Logger) *Starter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Starter{store: store, logger: logger.With(logging.String(logging.FieldComponent, "starter"))}
}

// HandleEvent parses a trigger event and creates a pending instance for it.
// Non-video uploads are skipped: the returned record and error are both nil.
func (s *Starter) HandleEvent(ctx context.Context, raw []byte) (*instance.Record, error) {
	event, err := ParseEvent(raw)
	if err != nil {
		return nil, err
	}

	info := event.VideoInfo()
	if !IsVideoFile(info.ContentType, info.BlobName) {
		s.logger.Info("skipping non-video upload",
			logging.String(logging.FieldVideoName, info.BlobName),
			logging.String("content_type", info.ContentType))
		return nil, nil
	}

	input, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode orchestration input: %w", err)
	}

	instanceID := uuid.NewString()
	record, err := s.store.Create(ctx, instanceID, info.BlobName, input)
	if err != nil {
		return nil, fmt.Errorf("create orchestration instance: %w", err)
	}

	s.logger.Info("started video processing instance",
		logging.String(logging.FieldInstanceID, record.InstanceID),
		logging.String(logging.FieldVideoName, info.BlobName),
		logging.String("container", info.ContainerName))
	return record, nil
}
