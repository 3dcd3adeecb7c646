package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/Kamar-Folarin/team-insights/internal/models"
)

// GetSyncStatus retrieves a sync run by id. A missing run yields nil.
func (s *PostgresStore) GetSyncStatus(ctx context.Context, id string) (*models.SyncStatus, error) {
	sqlStr, args, err := psql.Select("status_json").
		From("sync_status").
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sync status query: %w", err)
	}
	return s.scanStatus(s.db.QueryRowContext(ctx, sqlStr, args...))
}

// GetLatestSyncStatus retrieves the most recently started sync run.
func (s *PostgresStore) GetLatestSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	sqlStr, args, err := psql.Select("status_json").
		From("sync_status").
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sync status query: %w", err)
	}
	return s.scanStatus(s.db.QueryRowContext(ctx, sqlStr, args...))
}

func (s *PostgresStore) latestCompletedSync(ctx context.Context) (*models.SyncStatus, error) {
	sqlStr, args, err := psql.Select("status_json").
		From("sync_status").
		Where(squirrel.Eq{"deleted_at": nil, "status": models.SyncCompleted}).
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sync status query: %w", err)
	}
	return s.scanStatus(s.db.QueryRowContext(ctx, sqlStr, args...))
}

func (s *PostgresStore) scanStatus(row *sql.Row) (*models.SyncStatus, error) {
	var statusJSON []byte
	err := row.Scan(&statusJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	var status models.SyncStatus
	if err := json.Unmarshal(statusJSON, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync status: %w", err)
	}
	return &status, nil
}

// UpdateSyncStatus inserts or replaces a sync run.
func (s *PostgresStore) UpdateSyncStatus(ctx context.Context, status *models.SyncStatus) error {
	if status == nil {
		return fmt.Errorf("status cannot be nil")
	}

	statusJSON, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal sync status: %w", err)
	}

	sqlStr, args, err := psql.Insert("sync_status").
		Columns("id", "status", "started_at", "status_json").
		Values(status.ID, status.Status, status.StartTime, string(statusJSON)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			status_json = EXCLUDED.status_json,
			updated_at = NOW()
		WHERE sync_status.deleted_at IS NULL`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sync status upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// ListSyncStatuses retrieves the most recent sync runs, newest first.
func (s *PostgresStore) ListSyncStatuses(ctx context.Context, limit int) ([]*models.SyncStatus, error) {
	query := psql.Select("status_json").
		From("sync_status").
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("started_at DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sync status query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync statuses: %w", err)
	}
	defer rows.Close()

	statuses := make([]*models.SyncStatus, 0)
	for rows.Next() {
		var statusJSON []byte
		if err := rows.Scan(&statusJSON); err != nil {
			return nil, fmt.Errorf("failed to scan sync status row: %w", err)
		}

		var status models.SyncStatus
		if err := json.Unmarshal(statusJSON, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sync status: %w", err)
		}
		statuses = append(statuses, &status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync status rows: %w", err)
	}

	return statuses, nil
}

// ClearSyncStatuses soft deletes all sync runs
func (s *PostgresStore) ClearSyncStatuses(ctx context.Context) error {
	sqlStr, args, err := psql.Update("sync_status").
		Set("deleted_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sync status clear: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to clear sync statuses: %w", err)
	}
	return nil
}
