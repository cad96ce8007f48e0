package instance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// lockStatus reads the instance status inside a transaction and rejects
// mutations on missing or terminal instances.
func lockStatus(ctx context.Context, tx *sql.Tx, instanceID string) (Status, error) {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM instances WHERE instance_id = ?`, instanceID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, instanceID)
	}
	if err != nil {
		return "", fmt.Errorf("read instance status: %w", err)
	}
	status, ok := ParseStatus(raw)
	if !ok {
		return "", fmt.Errorf("instance %s has unknown status %q", instanceID, raw)
	}
	if status.IsTerminal() {
		return status, fmt.Errorf("%w: %s is %s", ErrTerminalState, instanceID, status)
	}
	return status, nil
}

func touch(ctx context.Context, tx *sql.Tx, instanceID string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE instances SET updated_at = ? WHERE instance_id = ?`,
		now.Format(time.RFC3339Nano), instanceID)
	if err != nil {
		return fmt.Errorf("touch instance: %w", err)
	}
	return nil
}

// AppendStep records a stage outcome. Each stage may be recorded at most once
// per instance.
func (s *Store) AppendStep(ctx context.Context, instanceID string, step StepRecord) error {
	if step.Name == "" {
		return errors.New("step name required")
	}
	if step.Status == "" {
		step.Status = StepCompleted
	}
	now := time.Now().UTC()
	if step.Timestamp.IsZero() {
		step.Timestamp = now
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockStatus(ctx, tx, instanceID); err != nil {
			return err
		}

		var duplicate int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM instance_steps WHERE instance_id = ? AND name = ?`,
			instanceID, step.Name,
		).Scan(&duplicate); err != nil {
			return fmt.Errorf("check step: %w", err)
		}
		if duplicate > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, step.Name)
		}

		var nextSeq int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM instance_steps WHERE instance_id = ?`,
			instanceID,
		).Scan(&nextSeq); err != nil {
			return fmt.Errorf("next step seq: %w", err)
		}

		var result any
		if len(step.Result) > 0 {
			result = string(step.Result)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO instance_steps (instance_id, seq, name, status, result_json, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			instanceID, nextSeq, step.Name, step.Status, result,
			step.Timestamp.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert step: %w", err)
		}
		return touch(ctx, tx, instanceID, now)
	})
}

// AppendError records a failure observed during execution.
func (s *Store) AppendError(ctx context.Context, instanceID string, record ErrorRecord) error {
	if record.Step == "" {
		record.Step = OrchestrationStep
	}
	now := time.Now().UTC()
	if record.Timestamp.IsZero() {
		record.Timestamp = now
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockStatus(ctx, tx, instanceID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO instance_errors (instance_id, step, message, created_at)
			 VALUES (?, ?, ?, ?)`,
			instanceID, record.Step, record.Message,
			record.Timestamp.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert error record: %w", err)
		}
		return touch(ctx, tx, instanceID, now)
	})
}

// SetStatus advances the instance lifecycle. Transitions must be monotonic;
// writing the current status again is an idempotent no-op so resumed
// executions do not fail.
func (s *Store) SetStatus(ctx context.Context, instanceID string, target Status) error {
	if _, ok := ParseStatus(string(target)); !ok {
		return fmt.Errorf("unknown status %q", target)
	}
	now := time.Now().UTC()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := lockStatus(ctx, tx, instanceID)
		if err != nil {
			return err
		}
		if current == target {
			return nil
		}
		if !CanTransition(current, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
		}

		timestamp := now.Format(time.RFC3339Nano)
		switch {
		case target == StatusRunning:
			_, err = tx.ExecContext(ctx,
				`UPDATE instances SET status = ?, started_at = COALESCE(started_at, ?), updated_at = ?
				 WHERE instance_id = ?`,
				target, timestamp, timestamp, instanceID)
		case target.IsTerminal():
			_, err = tx.ExecContext(ctx,
				`UPDATE instances SET status = ?, ended_at = ?, updated_at = ?
				 WHERE instance_id = ?`,
				target, timestamp, timestamp, instanceID)
		default:
			_, err = tx.ExecContext(ctx,
				`UPDATE instances SET status = ?, updated_at = ? WHERE instance_id = ?`,
				target, timestamp, instanceID)
		}
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
}

// SetCustomStatus stores the free-form progress marker.
func (s *Store) SetCustomStatus(ctx context.Context, instanceID, marker string) error {
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockStatus(ctx, tx, instanceID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE instances SET custom_status = ?, updated_at = ? WHERE instance_id = ?`,
			nullableString(marker), now.Format(time.RFC3339Nano), instanceID)
		if err != nil {
			return fmt.Errorf("update custom status: %w", err)
		}
		return nil
	})
}

// SetOutput stores the orchestration summary produced on completion. It must
// be written before the terminal status so readers never observe a completed
// instance without its output.
func (s *Store) SetOutput(ctx context.Context, instanceID string, output json.RawMessage) error {
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockStatus(ctx, tx, instanceID); err != nil {
			return err
		}
		var value any
		if len(output) > 0 {
			value = string(output)
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE instances SET output_json = ?, updated_at = ? WHERE instance_id = ?`,
			value, now.Format(time.RFC3339Nano), instanceID)
		if err != nil {
			return fmt.Errorf("update output: %w", err)
		}
		return nil
	})
}
