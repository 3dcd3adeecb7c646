package github

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Kamar-Folarin/team-insights/internal/models"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetRepository(ctx context.Context, owner, name string) (*models.Repository, error) {
	args := m.Called(ctx, owner, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Repository), args.Error(1)
}

func (m *mockClient) ListOrgRepositories(ctx context.Context, org string) ([]models.Repository, error) {
	args := m.Called(ctx, org)
	repos, _ := args.Get(0).([]models.Repository)
	return repos, args.Error(1)
}

func (m *mockClient) ListOrgMembers(ctx context.Context, org string) ([]models.Member, error) {
	args := m.Called(ctx, org)
	members, _ := args.Get(0).([]models.Member)
	return members, args.Error(1)
}

func (m *mockClient) ListIssues(ctx context.Context, owner, name string, limit int) ([]IssueSummary, error) {
	args := m.Called(ctx, owner, name, limit)
	issues, _ := args.Get(0).([]IssueSummary)
	return issues, args.Error(1)
}

func (m *mockClient) ListIssueComments(ctx context.Context, owner, name string, number int) ([]models.Comment, error) {
	args := m.Called(ctx, owner, name, number)
	comments, _ := args.Get(0).([]models.Comment)
	return comments, args.Error(1)
}

func (m *mockClient) ListPullRequests(ctx context.Context, owner, name string, limit int) ([]models.PullRequest, error) {
	args := m.Called(ctx, owner, name, limit)
	pulls, _ := args.Get(0).([]models.PullRequest)
	return pulls, args.Error(1)
}

func (m *mockClient) GetPullRequest(ctx context.Context, owner, name string, number int) (*models.PullRequest, error) {
	args := m.Called(ctx, owner, name, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PullRequest), args.Error(1)
}

func (m *mockClient) ListCommits(ctx context.Context, owner, name string, since *time.Time, limit int) ([]models.Commit, error) {
	args := m.Called(ctx, owner, name, since, limit)
	commits, _ := args.Get(0).([]models.Commit)
	return commits, args.Error(1)
}

func (m *mockClient) ListEvents(ctx context.Context, owner, name string, limit int) ([]models.TimelineEvent, error) {
	args := m.Called(ctx, owner, name, limit)
	events, _ := args.Get(0).([]models.TimelineEvent)
	return events, args.Error(1)
}

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) Collect(ctx context.Context, org string, repos []string) (*models.Snapshot, error) {
	args := m.Called(ctx, org, repos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

type txMarker struct{}

// mockRecordStore runs InTransaction callbacks directly and counts how each
// transaction ended.
type mockRecordStore struct {
	mock.Mock

	txMu       sync.Mutex
	committed  int
	rolledBack int
}

func (m *mockRecordStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(context.WithValue(ctx, txMarker{}, true))
	m.txMu.Lock()
	defer m.txMu.Unlock()
	if err != nil {
		m.rolledBack++
	} else {
		m.committed++
	}
	return err
}

func inTx() interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Value(txMarker{}) != nil
	})
}

func (m *mockRecordStore) SaveRecords(ctx context.Context, kind models.RecordKind, syncID string, records []models.Record) error {
	args := m.Called(ctx, kind, syncID, records)
	return args.Error(0)
}

func (m *mockRecordStore) PruneRecords(ctx context.Context, kind models.RecordKind, syncID string) (int64, error) {
	args := m.Called(ctx, kind, syncID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRecordStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	args := m.Called(ctx)
	projects, _ := args.Get(0).([]models.Project)
	return projects, args.Error(1)
}

type mockStatusStore struct {
	mock.Mock
}

func (m *mockStatusStore) GetSyncStatus(ctx context.Context, id string) (*models.SyncStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncStatus), args.Error(1)
}

func (m *mockStatusStore) GetLatestSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncStatus), args.Error(1)
}

func (m *mockStatusStore) UpdateSyncStatus(ctx context.Context, status *models.SyncStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *mockStatusStore) ListSyncStatuses(ctx context.Context, limit int) ([]*models.SyncStatus, error) {
	args := m.Called(ctx, limit)
	statuses, _ := args.Get(0).([]*models.SyncStatus)
	return statuses, args.Error(1)
}

func (m *mockStatusStore) ClearSyncStatuses(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type recordingSink struct {
	snapshots []*models.Snapshot
}

func (s *recordingSink) Replace(snap *models.Snapshot) {
	s.snapshots = append(s.snapshots, snap)
}
