package github

import (
	"context"
	"time"

	"github.com/Kamar-Folarin/team-insights/internal/models"
)

// Client is the slice of the GitHub REST API the collector reads.
type Client interface {
	GetRepository(ctx context.Context, owner, name string) (*models.Repository, error)
	ListOrgRepositories(ctx context.Context, org string) ([]models.Repository, error)
	ListOrgMembers(ctx context.Context, org string) ([]models.Member, error)
	ListIssues(ctx context.Context, owner, name string, limit int) ([]IssueSummary, error)
	ListIssueComments(ctx context.Context, owner, name string, number int) ([]models.Comment, error)
	ListPullRequests(ctx context.Context, owner, name string, limit int) ([]models.PullRequest, error)
	GetPullRequest(ctx context.Context, owner, name string, number int) (*models.PullRequest, error)
	ListCommits(ctx context.Context, owner, name string, since *time.Time, limit int) ([]models.Commit, error)
	ListEvents(ctx context.Context, owner, name string, limit int) ([]models.TimelineEvent, error)
}

// SnapshotCollector produces a snapshot for an org and/or repository list.
type SnapshotCollector interface {
	Collect(ctx context.Context, org string, repos []string) (*models.Snapshot, error)
}

// SnapshotSink receives every successfully synced snapshot.
type SnapshotSink interface {
	Replace(snap *models.Snapshot)
}

// RecordStore persists snapshot records. Writes made through the context
// handed to fn by InTransaction commit or roll back together.
type RecordStore interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	SaveRecords(ctx context.Context, kind models.RecordKind, syncID string, records []models.Record) error
	PruneRecords(ctx context.Context, kind models.RecordKind, syncID string) (int64, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
}

// SyncService defines the interface for sync operations
type SyncService interface {
	// TriggerSync starts a sync in the background and returns its initial status
	TriggerSync(ctx context.Context) (*models.SyncStatus, error)

	// RunSync runs a sync to completion
	RunSync(ctx context.Context) (*models.SyncStatus, error)

	// GetSyncStatus returns the running sync, or the most recent one
	GetSyncStatus(ctx context.Context) (*models.SyncStatus, error)

	// ListSyncStatuses returns recent sync runs, newest first
	ListSyncStatuses(ctx context.Context, limit int) ([]*models.SyncStatus, error)

	// Recover marks runs left in progress by a previous process as failed
	Recover(ctx context.Context) error

	// Start schedules periodic syncs with a cron spec
	Start(spec string) error

	// Stop halts the schedule and cancels a running sync
	Stop()
}

// StatusManager defines the interface for status management
type StatusManager interface {
	// GetStatus gets the status of one sync run
	GetStatus(ctx context.Context, id string) (*models.SyncStatus, error)

	// GetLatest gets the most recent sync run
	GetLatest(ctx context.Context) (*models.SyncStatus, error)

	// UpdateStatus creates or updates a sync run
	UpdateStatus(ctx context.Context, status *models.SyncStatus) error

	// ListStatuses lists recent sync runs
	ListStatuses(ctx context.Context, limit int) ([]*models.SyncStatus, error)

	// ClearStatuses clears all sync statuses
	ClearStatuses(ctx context.Context) error
}

// StatusStore is the persistence behind a StatusManager.
type StatusStore interface {
	GetSyncStatus(ctx context.Context, id string) (*models.SyncStatus, error)
	GetLatestSyncStatus(ctx context.Context) (*models.SyncStatus, error)
	UpdateSyncStatus(ctx context.Context, status *models.SyncStatus) error
	ListSyncStatuses(ctx context.Context, limit int) ([]*models.SyncStatus, error)
	ClearSyncStatuses(ctx context.Context) error
}
