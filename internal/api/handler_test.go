package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/team-insights/internal/dashboard"
	"github.com/Kamar-Folarin/team-insights/internal/errors"
	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/views"
)

// MockDashboard is a mock implementation of Dashboard
type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) MemberDetailedStats() []models.MemberDetailedStats {
	args := m.Called()
	return args.Get(0).([]models.MemberDetailedStats)
}

func (m *MockDashboard) Member(login string) (*models.MemberDetailedStats, error) {
	args := m.Called(login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MemberDetailedStats), args.Error(1)
}

func (m *MockDashboard) OverallStats() *models.OverallStats {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.OverallStats)
}

func (m *MockDashboard) RepositoryStats() []models.RepositoryStats {
	args := m.Called()
	return args.Get(0).([]models.RepositoryStats)
}

func (m *MockDashboard) RepositoryTimeline(name string) (*models.RepositoryTimeline, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepositoryTimeline), args.Error(1)
}

func (m *MockDashboard) Project(number int) (*models.ProjectStats, error) {
	args := m.Called(number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProjectStats), args.Error(1)
}

func (m *MockDashboard) ProjectTimeline(number int) (*models.ProjectTimeline, error) {
	args := m.Called(number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProjectTimeline), args.Error(1)
}

func (m *MockDashboard) ProjectsByNumber(numbers []int) ([]models.Project, error) {
	args := m.Called(numbers)
	projects, _ := args.Get(0).([]models.Project)
	return projects, args.Error(1)
}

func (m *MockDashboard) IssuesPage(q dashboard.IssueQuery) (views.Page[models.IssueView], error) {
	args := m.Called(q)
	return args.Get(0).(views.Page[models.IssueView]), args.Error(1)
}

func (m *MockDashboard) PullRequestsPage(q dashboard.PullRequestQuery) (views.Page[models.PullRequest], error) {
	args := m.Called(q)
	return args.Get(0).(views.Page[models.PullRequest]), args.Error(1)
}

func (m *MockDashboard) ProjectsPage(q dashboard.ProjectQuery) (views.Page[models.ProjectStats], error) {
	args := m.Called(q)
	return args.Get(0).(views.Page[models.ProjectStats]), args.Error(1)
}

func (m *MockDashboard) UpsertProject(ctx context.Context, project models.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *MockDashboard) RemoveProject(ctx context.Context, number int) error {
	return m.Called(ctx, number).Error(0)
}

// MockSyncService is a mock implementation of github.SyncService
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) TriggerSync(ctx context.Context) (*models.SyncStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncStatus), args.Error(1)
}

func (m *MockSyncService) RunSync(ctx context.Context) (*models.SyncStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncStatus), args.Error(1)
}

func (m *MockSyncService) GetSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncStatus), args.Error(1)
}

func (m *MockSyncService) ListSyncStatuses(ctx context.Context, limit int) ([]*models.SyncStatus, error) {
	args := m.Called(ctx, limit)
	statuses, _ := args.Get(0).([]*models.SyncStatus)
	return statuses, args.Error(1)
}

func (m *MockSyncService) Recover(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSyncService) Start(spec string) error {
	return m.Called(spec).Error(0)
}

func (m *MockSyncService) Stop() {
	m.Called()
}

func setupTestRouter(t *testing.T) (*gin.Engine, *MockDashboard, *MockSyncService) {
	gin.SetMode(gin.TestMode)

	mockDashboard := new(MockDashboard)
	mockSyncService := new(MockSyncService)
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil)) // Discard logs during tests

	router := SetupRouter(NewHandler(mockDashboard, mockSyncService, logger), logger)
	return router, mockDashboard, mockSyncService
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	w := doRequest(router, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMembers(t *testing.T) {
	router, d, _ := setupTestRouter(t)

	alice := models.MemberDetailedStats{MemberStats: models.MemberStats{Member: models.Member{Login: "alice"}}}
	d.On("MemberDetailedStats").Return([]models.MemberDetailedStats{alice})
	d.On("Member", "alice").Return(&alice, nil)
	d.On("Member", "ghost").Return(nil, errors.NewNotFoundError("member not found: ghost", nil))

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{name: "list", path: "/api/v1/members", expectedStatus: http.StatusOK},
		{name: "get", path: "/api/v1/members/alice", expectedStatus: http.StatusOK},
		{name: "unknown", path: "/api/v1/members/ghost", expectedStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "GET", tt.path, "")
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	w := doRequest(router, "GET", "/api/v1/members/ghost", "")
	assert.Equal(t, "member not found: ghost", errorMessage(t, w))
}

func TestOverallStats(t *testing.T) {
	t.Run("before first snapshot", func(t *testing.T) {
		router, d, _ := setupTestRouter(t)
		d.On("OverallStats").Return(nil)

		w := doRequest(router, "GET", "/api/v1/stats/overall", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("loaded", func(t *testing.T) {
		router, d, _ := setupTestRouter(t)
		d.On("OverallStats").Return(&models.OverallStats{Issues: models.NewTaskMetrics(4, 1)})

		w := doRequest(router, "GET", "/api/v1/stats/overall", "")
		require.Equal(t, http.StatusOK, w.Code)
		var got models.OverallStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 25.0, got.Issues.Percentage)
	})
}

func TestListIssues(t *testing.T) {
	router, d, _ := setupTestRouter(t)

	launch := models.Project{Number: 1, Title: "Launch"}
	d.On("ProjectsByNumber", []int{1}).Return([]models.Project{launch}, nil)
	d.On("ProjectsByNumber", []int{9}).Return(nil, errors.NewNotFoundError("project not found: 9", nil))
	d.On("IssuesPage", mock.MatchedBy(func(q dashboard.IssueQuery) bool {
		return q.Filter.Search == "login" &&
			assert.ObjectsAreEqual([]string{"widgets", "gadgets"}, q.Filter.Repositories) &&
			assert.ObjectsAreEqual([]models.IssueStatus{models.StatusOpen, models.StatusInProgress}, q.Filter.Statuses) &&
			assert.ObjectsAreEqual([]models.Project{launch}, q.Filter.Projects) &&
			q.Filter.Created.From != nil && q.Filter.Created.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			q.Filter.Created.To == nil &&
			q.Sort == views.SortNewest && q.Page == 2 && q.PageSize == 5
	})).Return(views.Page[models.IssueView]{Page: 2, PageSize: 5, TotalItems: 6, TotalPages: 2}, nil)
	d.On("IssuesPage", mock.MatchedBy(func(q dashboard.IssueQuery) bool { return q.Sort == "sideways" })).
		Return(views.Page[models.IssueView]{}, errors.NewValidationError("unknown sort key: sideways", nil))

	t.Run("filters are parsed", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/issues?q=login&repo=widgets,gadgets&status=open&status=in_progress&project=1&from=2024-03-01&sort=newest&page=2&page_size=5", "")
		require.Equal(t, http.StatusOK, w.Code)
		var page IssuePage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 6, page.TotalItems)
	})

	tests := []struct {
		name  string
		query string
	}{
		{name: "bad date", query: "from=yesterday"},
		{name: "bad page", query: "page=abc"},
		{name: "negative page size", query: "page_size=-1"},
		{name: "bad project", query: "project=x"},
		{name: "unknown project", query: "project=9"},
		{name: "unknown sort", query: "sort=sideways"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "GET", "/api/v1/issues?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestListPullRequests(t *testing.T) {
	router, d, _ := setupTestRouter(t)
	d.On("PullRequestsPage", mock.MatchedBy(func(q dashboard.PullRequestQuery) bool {
		return assert.ObjectsAreEqual([]string{"merged"}, q.Filter.States) &&
			assert.ObjectsAreEqual([]string{"bob"}, q.Filter.Authors)
	})).Return(views.Page[models.PullRequest]{Items: []models.PullRequest{{Number: 10}}, Page: 1, PageSize: 10, TotalItems: 1, TotalPages: 1}, nil)

	w := doRequest(router, "GET", "/api/v1/pulls?state=merged&author=bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page PullRequestPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, 10, page.Items[0].Number)
}

func TestProjects(t *testing.T) {
	router, d, _ := setupTestRouter(t)

	stats := &models.ProjectStats{Project: models.Project{Number: 3, Title: "Cleanup"}, State: models.ProjectOpen}
	d.On("ProjectsPage", mock.MatchedBy(func(q dashboard.ProjectQuery) bool {
		return assert.ObjectsAreEqual([]models.ProjectState{models.ProjectOpen}, q.Filter.States)
	})).Return(views.Page[models.ProjectStats]{Items: []models.ProjectStats{*stats}, Page: 1, PageSize: 10, TotalItems: 1, TotalPages: 1}, nil)
	d.On("Project", 3).Return(stats, nil)
	d.On("Project", 4).Return(nil, errors.NewNotFoundError("project not found: 4", nil))
	d.On("ProjectTimeline", 3).Return(&models.ProjectTimeline{Project: stats.Project}, nil)
	d.On("UpsertProject", mock.Anything, models.Project{
		Number: 3, Title: "Cleanup",
		Items: []models.ProjectItem{{IssueNumber: 2, Repository: "widgets"}},
	}).Return(nil)
	d.On("RemoveProject", mock.Anything, 3).Return(nil)
	d.On("RemoveProject", mock.Anything, 4).Return(errors.NewNotFoundError("project not found: 4", nil))

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "list", method: "GET", path: "/api/v1/projects?state=open", expectedStatus: http.StatusOK},
		{name: "get", method: "GET", path: "/api/v1/projects/3", expectedStatus: http.StatusOK},
		{name: "get unknown", method: "GET", path: "/api/v1/projects/4", expectedStatus: http.StatusNotFound},
		{name: "get invalid number", method: "GET", path: "/api/v1/projects/abc", expectedStatus: http.StatusBadRequest},
		{name: "timeline", method: "GET", path: "/api/v1/projects/3/timeline", expectedStatus: http.StatusOK},
		{name: "put", method: "PUT", path: "/api/v1/projects/3",
			body: `{"title":"Cleanup","items":[{"issue_number":2,"repository":"widgets"}]}`, expectedStatus: http.StatusOK},
		{name: "put malformed body", method: "PUT", path: "/api/v1/projects/3", body: `{"title":`, expectedStatus: http.StatusBadRequest},
		{name: "delete", method: "DELETE", path: "/api/v1/projects/3", expectedStatus: http.StatusNoContent},
		{name: "delete unknown", method: "DELETE", path: "/api/v1/projects/4", expectedStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRepositories(t *testing.T) {
	router, d, _ := setupTestRouter(t)
	d.On("RepositoryStats").Return([]models.RepositoryStats{{Repository: models.Repository{Name: "widgets"}}})
	d.On("RepositoryTimeline", "widgets").Return(&models.RepositoryTimeline{Repository: "widgets"}, nil)
	d.On("RepositoryTimeline", "nope").Return(nil, errors.NewNotFoundError("repository not found: nope", nil))

	assert.Equal(t, http.StatusOK, doRequest(router, "GET", "/api/v1/repositories", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "GET", "/api/v1/repositories/widgets/timeline", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(router, "GET", "/api/v1/repositories/nope/timeline", "").Code)
}

func TestSyncEndpoints(t *testing.T) {
	t.Run("trigger", func(t *testing.T) {
		router, _, s := setupTestRouter(t)
		s.On("TriggerSync", mock.Anything).Return(&models.SyncStatus{ID: "run-1", Status: models.SyncRunning, IsSyncing: true}, nil)

		w := doRequest(router, "POST", "/api/v1/sync", "")
		require.Equal(t, http.StatusAccepted, w.Code)
		var status models.SyncStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "run-1", status.ID)
	})

	t.Run("already running", func(t *testing.T) {
		router, _, s := setupTestRouter(t)
		s.On("TriggerSync", mock.Anything).Return(nil, errors.NewSyncInProgressError("run-1"))

		w := doRequest(router, "POST", "/api/v1/sync", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, errorMessage(t, w), "run-1")
	})

	t.Run("status", func(t *testing.T) {
		router, _, s := setupTestRouter(t)
		s.On("GetSyncStatus", mock.Anything).Return(nil, errors.NewNotFoundError("no sync has run yet", nil))

		w := doRequest(router, "GET", "/api/v1/sync", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("history", func(t *testing.T) {
		router, _, s := setupTestRouter(t)
		s.On("ListSyncStatuses", mock.Anything, 5).Return([]*models.SyncStatus{{ID: "a"}, {ID: "b"}}, nil)

		w := doRequest(router, "GET", "/api/v1/sync/history?limit=5", "")
		require.Equal(t, http.StatusOK, w.Code)
		var statuses []models.SyncStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
		assert.Len(t, statuses, 2)
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		router, _, s := setupTestRouter(t)
		s.On("ListSyncStatuses", mock.Anything, 20).Return(nil, fmt.Errorf("pq: connection refused"))

		w := doRequest(router, "GET", "/api/v1/sync/history", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", errorMessage(t, w))
	})
}
