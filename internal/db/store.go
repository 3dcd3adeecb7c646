package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/team-insights/internal/errors"
	"github.com/Kamar-Folarin/team-insights/internal/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// recordTables maps persisted collections to their tables.
var recordTables = map[models.RecordKind]string{
	models.KindRepositories:   "repositories",
	models.KindMembers:        "members",
	models.KindIssues:         "issues",
	models.KindPullRequests:   "pull_requests",
	models.KindCommits:        "commits",
	models.KindTimelineEvents: "timeline_events",
}

// Store defines the interface for database operations
type Store interface {
	// Snapshot operations
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	SaveRecords(ctx context.Context, kind models.RecordKind, syncID string, records []models.Record) error
	PruneRecords(ctx context.Context, kind models.RecordKind, syncID string) (int64, error)
	LoadSnapshot(ctx context.Context) (*models.Snapshot, error)

	// Project definitions
	ListProjects(ctx context.Context) ([]models.Project, error)
	SaveProject(ctx context.Context, project models.Project) error
	DeleteProject(ctx context.Context, number int) error

	// Sync operations
	GetSyncStatus(ctx context.Context, id string) (*models.SyncStatus, error)
	GetLatestSyncStatus(ctx context.Context) (*models.SyncStatus, error)
	UpdateSyncStatus(ctx context.Context, status *models.SyncStatus) error
	ListSyncStatuses(ctx context.Context, limit int) ([]*models.SyncStatus, error)
	ClearSyncStatuses(ctx context.Context) error

	Close() error
}

type PostgresStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewPostgresStore(connectionString string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

func (s *PostgresStore) Migrate() error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type txKey struct{}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// InTransaction runs fn with a context carrying one database transaction.
// Store writes made through that context commit together when fn returns nil
// and roll back otherwise. Nested calls join the outer transaction.
func (s *PostgresStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			s.logger.WithError(rerr).Warn("Failed to roll back transaction")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// conn returns the transaction carried by ctx, or the pool.
func (s *PostgresStore) conn(ctx context.Context) execer {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func tableFor(kind models.RecordKind) (string, error) {
	table, ok := recordTables[kind]
	if !ok {
		return "", errors.NewValidationError(fmt.Sprintf("unknown record kind: %s", kind), nil)
	}
	return table, nil
}

// SaveRecords upserts records of one kind, tagging them with the sync run
// that produced them. It joins the transaction carried by ctx, if any.
func (s *PostgresStore) SaveRecords(ctx context.Context, kind models.RecordKind, syncID string, records []models.Record) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	query := psql.Insert(table).
		Columns("key", "payload", "sync_id", "updated_at").
		Suffix("ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, sync_id = EXCLUDED.sync_id, updated_at = EXCLUDED.updated_at")

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		key := r.RecordKey()
		// A single INSERT cannot touch the same key twice.
		if seen[key] {
			continue
		}
		seen[key] = true
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal %s record %s: %w", kind, key, err)
		}
		query = query.Values(key, string(payload), syncID, now)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s upsert: %w", kind, err)
	}

	err = s.InTransaction(ctx, func(ctx context.Context) error {
		_, err := s.conn(ctx).ExecContext(ctx, sqlStr, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", kind, err)
	}

	s.logger.WithFields(logrus.Fields{
		"kind":    kind,
		"records": len(seen),
		"sync_id": syncID,
	}).Debug("Saved records")
	return nil
}

// PruneRecords deletes records of kind that the given sync run did not touch.
// It joins the transaction carried by ctx, if any.
func (s *PostgresStore) PruneRecords(ctx context.Context, kind models.RecordKind, syncID string) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	sqlStr, args, err := psql.Delete(table).Where(squirrel.NotEq{"sync_id": syncID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build %s prune: %w", kind, err)
	}

	res, err := s.conn(ctx).ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune %s: %w", kind, err)
	}
	return res.RowsAffected()
}

// LoadSnapshot rebuilds the last persisted snapshot.
func (s *PostgresStore) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	var err error

	if snap.Repositories, err = loadRecords[models.Repository](ctx, s.db, models.KindRepositories); err != nil {
		return nil, err
	}
	if snap.Members, err = loadRecords[models.Member](ctx, s.db, models.KindMembers); err != nil {
		return nil, err
	}
	if snap.Issues, err = loadRecords[models.Issue](ctx, s.db, models.KindIssues); err != nil {
		return nil, err
	}
	if snap.PullRequests, err = loadRecords[models.PullRequest](ctx, s.db, models.KindPullRequests); err != nil {
		return nil, err
	}
	if snap.Commits, err = loadRecords[models.Commit](ctx, s.db, models.KindCommits); err != nil {
		return nil, err
	}
	if snap.Events, err = loadRecords[models.TimelineEvent](ctx, s.db, models.KindTimelineEvents); err != nil {
		return nil, err
	}
	if snap.Projects, err = s.ListProjects(ctx); err != nil {
		return nil, err
	}

	latest, err := s.latestCompletedSync(ctx)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.EndTime != nil {
		snap.FetchedAt = *latest.EndTime
	}

	return &snap, nil
}

func loadRecords[T any](ctx context.Context, db *sql.DB, kind models.RecordKind) ([]T, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := psql.Select("payload").From(table).OrderBy("key").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", kind, err)
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		var item T
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s row: %w", kind, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", kind, err)
	}
	return out, nil
}

// ListProjects returns the stored project definitions ordered by number.
func (s *PostgresStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	sqlStr, args, err := psql.Select("payload").From("projects").OrderBy("number").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build projects query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		var p models.Project
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SaveProject creates or replaces a project definition.
func (s *PostgresStore) SaveProject(ctx context.Context, project models.Project) error {
	payload, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	sqlStr, args, err := psql.Insert("projects").
		Columns("number", "payload", "updated_at").
		Values(project.Number, string(payload), time.Now().UTC()).
		Suffix("ON CONFLICT (number) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build project upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to save project %d: %w", project.Number, err)
	}
	return nil
}

// DeleteProject removes a project definition.
func (s *PostgresStore) DeleteProject(ctx context.Context, number int) error {
	sqlStr, args, err := psql.Delete("projects").Where(squirrel.Eq{"number": number}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build project delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to delete project %d: %w", number, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete project %d: %w", number, err)
	}
	if n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("project %d not found", number), nil)
	}
	return nil
}
