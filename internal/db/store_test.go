package db

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/team-insights/internal/errors"
	"github.com/Kamar-Folarin/team-insights/internal/models"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))

	store, err := NewPostgresStore(dsn, logger)
	require.NoError(t, err)
	require.NoError(t, store.Migrate())

	t.Cleanup(func() {
		_, err := store.db.Exec(`
			TRUNCATE repositories, members, issues, pull_requests, commits,
				timeline_events, projects, sync_status;
		`)
		assert.NoError(t, err)
		store.Close()
	})

	return store
}

func TestTableFor(t *testing.T) {
	table, err := tableFor(models.KindPullRequests)
	require.NoError(t, err)
	assert.Equal(t, "pull_requests", table)

	_, err = tableFor("users; DROP TABLE issues")
	assert.True(t, errors.IsInvalidInput(err))
}

func TestPostgresStore_SnapshotRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	alice := &models.Member{Login: "alice", AvatarURL: "https://avatars/alice"}
	snap := models.Snapshot{
		Repositories: []models.Repository{{Name: "api", Description: "backend"}},
		Members:      []models.Member{*alice},
		Issues: []models.Issue{{
			Number:     1,
			Title:      "Fix login",
			Body:       "- [x] a",
			State:      models.StateOpen,
			Assignee:   alice,
			Repository: models.RepositoryRef{Name: "api"},
			CreatedAt:  "2024-03-01T10:00:00Z",
			Comments:   []models.Comment{{User: alice, Body: "done", CreatedAt: "2024-03-02T10:00:00Z"}},
		}},
		PullRequests: []models.PullRequest{{Number: 2, Repository: models.RepositoryRef{Name: "api"}, User: alice, Additions: 10}},
		Commits:      []models.Commit{{SHA: "abc", Repository: models.RepositoryRef{Name: "api"}, Author: alice, Date: "2024-03-01T11:00:00Z"}},
		Events:       []models.TimelineEvent{{ID: "evt-1", Type: models.EventPush, Repository: models.RepositoryRef{Name: "api"}, Actor: alice}},
	}

	for _, kind := range models.SnapshotKinds {
		require.NoError(t, store.SaveRecords(ctx, kind, "run-1", snap.Records(kind)))
	}

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Repositories, loaded.Repositories)
	assert.Equal(t, snap.Members, loaded.Members)
	assert.Equal(t, snap.Issues, loaded.Issues)
	assert.Equal(t, snap.PullRequests, loaded.PullRequests)
	assert.Equal(t, snap.Commits, loaded.Commits)
	assert.Equal(t, snap.Events, loaded.Events)

	t.Run("prune removes records from older runs", func(t *testing.T) {
		require.NoError(t, store.SaveRecords(ctx, models.KindCommits, "run-2", []models.Record{
			models.Commit{SHA: "def", Repository: models.RepositoryRef{Name: "api"}},
		}))

		removed, err := store.PruneRecords(ctx, models.KindCommits, "run-2")
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		loaded, err := store.LoadSnapshot(ctx)
		require.NoError(t, err)
		require.Len(t, loaded.Commits, 1)
		assert.Equal(t, "def", loaded.Commits[0].SHA)
	})

	t.Run("duplicate keys in one batch are saved once", func(t *testing.T) {
		dup := models.Member{Login: "bob"}
		require.NoError(t, store.SaveRecords(ctx, models.KindMembers, "run-2", []models.Record{dup, dup}))
	})
}

func TestPostgresStore_InTransactionRollsBack(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRecords(ctx, models.KindRepositories, "run-1", []models.Record{
		models.Repository{Name: "api"},
	}))
	require.NoError(t, store.SaveRecords(ctx, models.KindIssues, "run-1", []models.Record{
		models.Issue{Number: 1, Repository: models.RepositoryRef{Name: "api"}},
	}))

	err := store.InTransaction(ctx, func(ctx context.Context) error {
		if err := store.SaveRecords(ctx, models.KindRepositories, "run-2", []models.Record{
			models.Repository{Name: "web"},
		}); err != nil {
			return err
		}
		if _, err := store.PruneRecords(ctx, models.KindRepositories, "run-2"); err != nil {
			return err
		}
		return fmt.Errorf("issues fetch failed")
	})
	require.Error(t, err)

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Repositories, 1)
	assert.Equal(t, "api", loaded.Repositories[0].Name)
	require.Len(t, loaded.Issues, 1)

	require.NoError(t, store.InTransaction(ctx, func(ctx context.Context) error {
		return store.SaveRecords(ctx, models.KindRepositories, "run-3", []models.Record{
			models.Repository{Name: "web"},
		})
	}))
	loaded, err = store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Repositories, 2)
}

func TestPostgresStore_Projects(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	project := models.Project{Number: 3, Title: "Launch", Items: []models.ProjectItem{{IssueNumber: 1, Repository: "api"}}}
	require.NoError(t, store.SaveProject(ctx, project))

	project.Title = "Launch v2"
	require.NoError(t, store.SaveProject(ctx, project))

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Launch v2", projects[0].Title)

	require.NoError(t, store.DeleteProject(ctx, 3))
	err = store.DeleteProject(ctx, 3)
	assert.True(t, errors.IsNotFound(err))
}

func TestPostgresStore_SyncStatus(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	older := &models.SyncStatus{ID: "run-1", Status: models.SyncCompleted, StartTime: time.Now().Add(-time.Hour).UTC()}
	end := time.Now().Add(-50 * time.Minute).UTC().Truncate(time.Second)
	older.EndTime = &end
	newer := &models.SyncStatus{ID: "run-2", Status: models.SyncRunning, IsSyncing: true, StartTime: time.Now().UTC()}

	require.NoError(t, store.UpdateSyncStatus(ctx, older))
	require.NoError(t, store.UpdateSyncStatus(ctx, newer))

	latest, err := store.GetLatestSyncStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-2", latest.ID)

	got, err := store.GetSyncStatus(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.SyncCompleted, got.Status)

	missing, err := store.GetSyncStatus(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	snap, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, end.Equal(snap.FetchedAt))

	statuses, err := store.ListSyncStatuses(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, statuses, 2)

	require.NoError(t, store.ClearSyncStatuses(ctx))
	statuses, err = store.ListSyncStatuses(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}
