package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vidflow/internal/activity"
	"vidflow/internal/instance"
	"vidflow/internal/logging"
	"vidflow/internal/services"
	"vidflow/internal/stages"
	"vidflow/internal/starter"
)

// Engine drives one orchestration instance through the stage pipeline.
// Run is safe to call again for the same instance after a crash: recorded
// step results are replayed instead of re-invoking their activities.
type Engine struct {
	store   *instance.Store
	invoker activity.Invoker
	logger  *slog.Logger
	now     func() time.Time
}

func New(store *instance.Store, invoker activity.Invoker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		store:   store,
		invoker: invoker,
		logger:  logging.NewComponentLogger(logger, "engine"),
		now:     time.Now,
	}
}

// Run executes the pipeline for instanceID until completion or first
// failure. A terminal instance returns immediately with no mutation.
func (e *Engine) Run(ctx context.Context, instanceID string) error {
	record, err := e.store.Get(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}
	if record.Status.IsTerminal() {
		return nil
	}

	var video starter.VideoInfo
	if err := json.Unmarshal(record.Input, &video); err != nil {
		return e.fail(ctx, instanceID, instance.OrchestrationStep,
			fmt.Errorf("decode orchestration input: %w", err))
	}

	runCtx := services.WithInstanceID(ctx, instanceID)
	logger := e.logger.With(
		logging.String(logging.FieldInstanceID, instanceID),
		logging.String(logging.FieldVideoName, record.VideoName))

	if err := e.store.SetStatus(runCtx, instanceID, instance.StatusRunning); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	startedAt := e.now().UTC()
	if record.StartedAt != nil {
		startedAt = record.StartedAt.UTC()
	}

	sctx := stages.NewContext(video)
	defs := stages.Pipeline()
	for i, def := range defs {
		if step, ok := record.StepFor(def.Name); ok {
			if step.Status != instance.StepCompleted {
				return e.fail(runCtx, instanceID, def.Name,
					fmt.Errorf("recorded step %s is not replayable (status %s)", def.Name, step.Status))
			}
			if sctx, err = def.Apply(sctx, step.Result); err != nil {
				return e.fail(runCtx, instanceID, def.Name, err)
			}
			logger.Debug("replayed recorded stage", logging.String(logging.FieldStage, def.Name))
			continue
		}

		marker := fmt.Sprintf("stage %d of %d: %s", i+1, len(defs), def.Name)
		if err := e.store.SetCustomStatus(runCtx, instanceID, marker); err != nil {
			return fmt.Errorf("update custom status: %w", err)
		}

		input, err := def.Input(sctx)
		if err != nil {
			return e.fail(runCtx, instanceID, def.Name, err)
		}

		stageCtx := services.WithStage(runCtx, def.Name)
		logger.Info("invoking stage", logging.String(logging.FieldStage, def.Name))
		result, err := e.invoker.Invoke(stageCtx, def.Name, input)
		if err != nil {
			if recordErr := e.store.AppendStep(runCtx, instanceID, instance.StepRecord{
				Name:   def.Name,
				Status: instance.StepFailed,
			}); recordErr != nil {
				logger.Error("failed to record failed step", logging.Error(recordErr))
			}
			return e.fail(runCtx, instanceID, def.Name, err)
		}

		if err := e.store.AppendStep(runCtx, instanceID, instance.StepRecord{
			Name:   def.Name,
			Status: instance.StepCompleted,
			Result: result,
		}); err != nil {
			// A duplicate means another executor got here first; its
			// recording wins and this run stops cleanly.
			if errors.Is(err, instance.ErrDuplicateStep) {
				logger.Warn("stage already recorded by another executor",
					logging.String(logging.FieldStage, def.Name))
				return nil
			}
			return fmt.Errorf("record step %s: %w", def.Name, err)
		}

		if sctx, err = def.Apply(sctx, result); err != nil {
			return e.fail(runCtx, instanceID, def.Name, err)
		}
		logger.Info("stage completed", logging.String(logging.FieldStage, def.Name))
	}

	return e.complete(runCtx, logger, instanceID, video, sctx, startedAt)
}

func (e *Engine) complete(ctx context.Context, logger *slog.Logger, instanceID string, video starter.VideoInfo, sctx stages.Context, startedAt time.Time) error {
	endedAt := e.now().UTC()
	duration := endedAt.Sub(startedAt).Seconds()

	summary := map[string]any{
		"video_name":                  video.BlobName,
		"status":                      string(instance.StatusCompleted),
		"start_time":                  startedAt.Format(time.RFC3339),
		"end_time":                    endedAt.Format(time.RFC3339),
		"processing_duration_seconds": duration,
	}
	if sctx.Search != nil {
		summary["search_document_id"] = sctx.Search.DocumentID
	}
	if sctx.Insights != nil {
		summary["insights"] = sctx.Insights.Insights
	}
	output, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode orchestration output: %w", err)
	}

	if err := e.store.SetOutput(ctx, instanceID, output); err != nil {
		return fmt.Errorf("store orchestration output: %w", err)
	}
	if err := e.store.SetCustomStatus(ctx, instanceID, "all stages completed"); err != nil {
		return fmt.Errorf("update custom status: %w", err)
	}
	if err := e.store.SetStatus(ctx, instanceID, instance.StatusCompleted); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	logger.Info("orchestration completed",
		logging.Float64("duration_seconds", duration))
	return nil
}

// fail records the failure and moves the instance to its terminal failed
// state. The original stage error is returned to the caller.
func (e *Engine) fail(ctx context.Context, instanceID, step string, stageErr error) error {
	if err := e.store.AppendError(ctx, instanceID, instance.ErrorRecord{
		Step:    step,
		Message: stageErr.Error(),
	}); err != nil {
		e.logger.Error("failed to record orchestration error",
			logging.String(logging.FieldInstanceID, instanceID),
			logging.Error(err))
	}
	if err := e.store.SetStatus(ctx, instanceID, instance.StatusFailed); err != nil {
		e.logger.Error("failed to mark instance failed",
			logging.String(logging.FieldInstanceID, instanceID),
			logging.Error(err))
	}
	e.logger.Error("orchestration failed",
		logging.String(logging.FieldInstanceID, instanceID),
		logging.String(logging.FieldStage, step),
		logging.Error(stageErr))
	return stageErr
}
