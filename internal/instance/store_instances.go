package instance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const instanceColumns = `instance_id, video_name, input_json, status, custom_status, output_json,
	created_at, updated_at, started_at, ended_at`

// Create inserts a new pending instance. The identifier must be unused.
func (s *Store) Create(ctx context.Context, instanceID, videoName string, input json.RawMessage) (*Record, error) {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" {
		return nil, errors.New("instance id required")
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM instances WHERE instance_id = ?`, instanceID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check instance: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, instanceID)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO instances (
				instance_id, video_name, input_json, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?)`,
			instanceID,
			nullableString(videoName),
			string(input),
			StatusPending,
			timestamp,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert instance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, instanceID)
}

// Get fetches an instance with its full step and error history.
func (s *Store) Get(ctx context.Context, instanceID string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM instances WHERE instance_id = ?`, instanceID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, instanceID)
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}

	if record.Steps, err = s.loadSteps(ctx, instanceID); err != nil {
		return nil, err
	}
	if record.Errors, err = s.loadErrors(ctx, instanceID); err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecent returns the newest instances first, without step history.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+instanceColumns+` FROM instances ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// InstancesByStatus returns instances matching any of the provided statuses,
// oldest first, without step history.
func (s *Store) InstancesByStatus(ctx context.Context, statuses ...Status) ([]*Record, error) {
	ctx = ensureContext(ctx)
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+instanceColumns+` FROM instances WHERE status IN (`+placeholders+`) ORDER BY created_at`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Stats returns instance counts per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM instances GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		if parsed, ok := ParseStatus(status); ok {
			stats[parsed] = count
		}
	}
	return stats, rows.Err()
}

func (s *Store) loadSteps(ctx context.Context, instanceID string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, status, result_json, created_at FROM instance_steps
		 WHERE instance_id = ? ORDER BY seq`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("load steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var (
			step   StepRecord
			result sql.NullString
			ts     string
		)
		if err := rows.Scan(&step.Name, &step.Status, &result, &ts); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if result.Valid {
			step.Result = json.RawMessage(result.String)
		}
		step.Timestamp = parseTimestamp(ts)
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

func (s *Store) loadErrors(ctx context.Context, instanceID string) ([]ErrorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, message, created_at FROM instance_errors
		 WHERE instance_id = ? ORDER BY id`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("load errors: %w", err)
	}
	defer rows.Close()

	var records []ErrorRecord
	for rows.Next() {
		var (
			record ErrorRecord
			ts     string
		)
		if err := rows.Scan(&record.Step, &record.Message, &ts); err != nil {
			return nil, fmt.Errorf("scan error record: %w", err)
		}
		record.Timestamp = parseTimestamp(ts)
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record       Record
		videoName    sql.NullString
		customStatus sql.NullString
		output       sql.NullString
		input        string
		createdAt    string
		updatedAt    string
		startedAt    sql.NullString
		endedAt      sql.NullString
	)
	if err := row.Scan(
		&record.InstanceID,
		&videoName,
		&input,
		&record.Status,
		&customStatus,
		&output,
		&createdAt,
		&updatedAt,
		&startedAt,
		&endedAt,
	); err != nil {
		return nil, err
	}
	record.VideoName = videoName.String
	record.CustomStatus = customStatus.String
	record.Input = json.RawMessage(input)
	if output.Valid {
		record.Output = json.RawMessage(output.String)
	}
	record.CreatedAt = parseTimestamp(createdAt)
	record.UpdatedAt = parseTimestamp(updatedAt)
	record.StartedAt = parseNullableTimestamp(startedAt)
	record.EndedAt = parseNullableTimestamp(endedAt)
	return &record, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func parseTimestamp(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}

func parseNullableTimestamp(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	ts := parseTimestamp(value.String)
	if ts.IsZero() {
		return nil
	}
	return &ts
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
