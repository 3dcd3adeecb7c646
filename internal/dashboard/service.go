// Package dashboard holds the current team snapshot and serves the derived
// statistics, timelines and list views computed from it.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/team-insights/internal/errors"
	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/stats"
	"github.com/Kamar-Folarin/team-insights/internal/timeline"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
	"github.com/Kamar-Folarin/team-insights/internal/views"
)

// ProjectStore persists local project definitions.
type ProjectStore interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	SaveProject(ctx context.Context, project models.Project) error
	DeleteProject(ctx context.Context, number int) error
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for due dates and progress.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPageSize sets the default list page size.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithProjectStore persists project edits through store.
func WithProjectStore(store ProjectStore) Option {
	return func(s *Service) { s.projects = store }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service serves derived views over the current snapshot. Derived results
// are computed once per snapshot version and UTC day. Schedule fields that
// move with the clock are refreshed on every read.
type Service struct {
	mu       sync.RWMutex
	snap     models.Snapshot
	loaded   bool
	version  uint64
	derived  *derived
	now      func() time.Time
	pageSize int
	projects ProjectStore
	logger   logrus.FieldLogger
}

type derived struct {
	version       uint64
	day           time.Time
	loaded        bool
	members       []models.MemberDetailedStats
	overall       models.OverallStats
	repoStats     []models.RepositoryStats
	repoTimelines []models.RepositoryTimeline
	repoIndex     map[string]models.RepositoryTimeline
	projectStats  []models.ProjectStats
}

// NewService creates an empty service. Until the first Replace every list is
// empty and OverallStats is nil.
func NewService(opts ...Option) *Service {
	s := &Service{
		now:      time.Now,
		pageSize: views.DefaultPageSize,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace swaps in a new snapshot. A nil snapshot clears the service.
func (s *Service) Replace(snap *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	s.derived = nil
	if snap == nil {
		s.snap = models.Snapshot{}
		s.loaded = false
		return
	}
	s.snap = *snap
	s.loaded = true
	s.logger.WithFields(logrus.Fields{
		"version":       s.version,
		"repositories":  len(snap.Repositories),
		"issues":        len(snap.Issues),
		"pull_requests": len(snap.PullRequests),
		"events":        len(snap.Events),
	}).Info("Snapshot replaced")
}

// Snapshot returns a copy of the current snapshot header and slices.
func (s *Service) Snapshot() (models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.loaded
}

// Version increases with every snapshot or project change.
func (s *Service) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// LoadProjects reads project definitions from the project store into the
// current snapshot.
func (s *Service) LoadProjects(ctx context.Context) error {
	if s.projects == nil {
		return nil
	}
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Projects = projects
	s.version++
	s.derived = nil
	return nil
}

// view returns the snapshot, its derived results and the read time. Derived
// results are recomputed after a change or when the UTC day rolls over.
func (s *Service) view() (models.Snapshot, *derived, time.Time) {
	now := s.now().UTC()
	day := utils.StartOfDay(now)

	s.mu.RLock()
	if s.derived.current(s.version, day) {
		snap, d := s.snap, s.derived
		s.mu.RUnlock()
		return snap, d, now
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.derived.current(s.version, day) {
		start := time.Now()
		s.derived = compute(s.snap, s.version, now)
		s.derived.loaded = s.loaded
		s.logger.WithFields(logrus.Fields{
			"version":  s.version,
			"duration": time.Since(start),
		}).Debug("Derived views computed")
	}
	return s.snap, s.derived, now
}

func (d *derived) current(version uint64, day time.Time) bool {
	return d != nil && d.version == version && d.day.Equal(day)
}

func compute(snap models.Snapshot, version uint64, now time.Time) *derived {
	d := &derived{
		version:       version,
		day:           utils.StartOfDay(now),
		repoStats:     make([]models.RepositoryStats, 0),
		repoTimelines: make([]models.RepositoryTimeline, 0),
		repoIndex:     make(map[string]models.RepositoryTimeline),
		projectStats:  make([]models.ProjectStats, 0, len(snap.Projects)),
	}

	d.members = stats.MemberDetailedStats(stats.Members(snap), snap.Issues, snap.PullRequests, snap.Commits)
	d.overall = stats.Overall(snap.Issues)

	for _, repo := range stats.Repositories(snap) {
		d.repoStats = append(d.repoStats, stats.RepositoryStats(repo, snap.Issues, snap.PullRequests, snap.Commits, now))
		rt := timeline.Repository(repo.Name, snap.Issues, snap.Events, now)
		d.repoTimelines = append(d.repoTimelines, rt)
		d.repoIndex[repo.Name] = rt
	}

	for _, project := range snap.Projects {
		d.projectStats = append(d.projectStats, stats.ProjectStats(project, snap.Issues))
	}
	return d
}

// MemberDetailedStats returns per member issue, task and code statistics.
func (s *Service) MemberDetailedStats() []models.MemberDetailedStats {
	_, d, _ := s.view()
	return d.members
}

// Member returns the statistics of one member.
func (s *Service) Member(login string) (*models.MemberDetailedStats, error) {
	_, d, _ := s.view()
	for i := range d.members {
		if strings.EqualFold(d.members[i].Member.Login, login) {
			m := d.members[i]
			return &m, nil
		}
	}
	return nil, errors.NewNotFoundError(fmt.Sprintf("member not found: %s", login), nil)
}

// OverallStats returns team wide issue and task statistics, or nil before
// the first snapshot.
func (s *Service) OverallStats() *models.OverallStats {
	_, d, _ := s.view()
	if !d.loaded {
		return nil
	}
	overall := d.overall
	return &overall
}

// RepositoryStats returns statistics for every repository.
func (s *Service) RepositoryStats() []models.RepositoryStats {
	_, d, _ := s.view()
	return d.repoStats
}

// RepositoryTimelines returns the timeline of every repository.
func (s *Service) RepositoryTimelines() []models.RepositoryTimeline {
	_, d, now := s.view()
	out := make([]models.RepositoryTimeline, len(d.repoTimelines))
	for i, rt := range d.repoTimelines {
		timeline.Refresh(&rt.Schedule, now)
		out[i] = rt
	}
	return out
}

// RepositoryTimeline returns the timeline of one repository.
func (s *Service) RepositoryTimeline(name string) (*models.RepositoryTimeline, error) {
	_, d, now := s.view()
	rt, ok := d.repoIndex[name]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("repository not found: %s", name), nil)
	}
	timeline.Refresh(&rt.Schedule, now)
	return &rt, nil
}

// ProjectStats returns statistics for every project.
func (s *Service) ProjectStats() []models.ProjectStats {
	_, d, _ := s.view()
	return d.projectStats
}

// Project returns the statistics of one project.
func (s *Service) Project(number int) (*models.ProjectStats, error) {
	_, d, _ := s.view()
	for i := range d.projectStats {
		if d.projectStats[i].Project.Number == number {
			ps := d.projectStats[i]
			return &ps, nil
		}
	}
	return nil, errors.NewNotFoundError(fmt.Sprintf("project not found: %d", number), nil)
}

// ProjectTimeline returns the timeline of one project.
func (s *Service) ProjectTimeline(number int) (*models.ProjectTimeline, error) {
	snap, d, now := s.view()
	for _, project := range snap.Projects {
		if project.Number == number {
			pt := timeline.Project(project, snap.Issues, d.repoIndex, now)
			return &pt, nil
		}
	}
	return nil, errors.NewNotFoundError(fmt.Sprintf("project not found: %d", number), nil)
}

// ProjectTimelines returns the timeline of every project.
func (s *Service) ProjectTimelines() []models.ProjectTimeline {
	snap, d, now := s.view()
	out := make([]models.ProjectTimeline, 0, len(snap.Projects))
	for _, project := range snap.Projects {
		out = append(out, timeline.Project(project, snap.Issues, d.repoIndex, now))
	}
	return out
}

// FilteredIssues returns the issues matching filter in snapshot order.
func (s *Service) FilteredIssues(filter views.IssueFilter) []models.Issue {
	snap, _, _ := s.view()
	return views.FilterIssues(snap.Issues, filter)
}

// IssueDueDates returns the due date status of every open issue keyed by
// "repository#number".
func (s *Service) IssueDueDates() map[string]models.DueDateStatus {
	snap, _, now := s.view()
	out := make(map[string]models.DueDateStatus)
	for _, issue := range snap.Issues {
		if issue.IsClosed() {
			continue
		}
		out[issue.RecordKey()] = stats.DueDate(issue, now)
	}
	return out
}

// IssueQuery selects a page of issues.
type IssueQuery struct {
	Filter   views.IssueFilter
	Sort     views.SortKey
	Page     int
	PageSize int
}

// IssuesPage filters, sorts and paginates issues.
func (s *Service) IssuesPage(q IssueQuery) (views.Page[models.IssueView], error) {
	if !q.Sort.Valid() {
		return views.Page[models.IssueView]{}, invalidSort(q.Sort)
	}
	snap, _, now := s.view()
	issues := views.FilterIssues(snap.Issues, q.Filter)
	items := make([]models.IssueView, 0, len(issues))
	for _, issue := range issues {
		items = append(items, stats.IssueView(issue, now))
	}
	return views.Paginate(views.SortIssueViews(items, q.Sort), q.Page, s.size(q.PageSize)), nil
}

// PullRequestQuery selects a page of pull requests.
type PullRequestQuery struct {
	Filter   views.PullRequestFilter
	Sort     views.SortKey
	Page     int
	PageSize int
}

// PullRequestsPage filters, sorts and paginates pull requests.
func (s *Service) PullRequestsPage(q PullRequestQuery) (views.Page[models.PullRequest], error) {
	if !q.Sort.Valid() {
		return views.Page[models.PullRequest]{}, invalidSort(q.Sort)
	}
	snap, _, _ := s.view()
	pulls := views.FilterPullRequests(snap.PullRequests, q.Filter)
	return views.Paginate(views.SortPullRequests(pulls, q.Sort), q.Page, s.size(q.PageSize)), nil
}

// ProjectQuery selects a page of projects.
type ProjectQuery struct {
	Filter   views.ProjectFilter
	Sort     views.SortKey
	Page     int
	PageSize int
}

// ProjectsPage filters, sorts and paginates project statistics.
func (s *Service) ProjectsPage(q ProjectQuery) (views.Page[models.ProjectStats], error) {
	if !q.Sort.Valid() {
		return views.Page[models.ProjectStats]{}, invalidSort(q.Sort)
	}
	projects := views.FilterProjects(s.ProjectStats(), q.Filter)
	return views.Paginate(views.SortProjects(projects, q.Sort), q.Page, s.size(q.PageSize)), nil
}

// ProjectsByNumber resolves project numbers for an issue filter.
func (s *Service) ProjectsByNumber(numbers []int) ([]models.Project, error) {
	snap, _, _ := s.view()
	out := make([]models.Project, 0, len(numbers))
	for _, n := range numbers {
		found := false
		for _, p := range snap.Projects {
			if p.Number == n {
				out = append(out, p)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.NewNotFoundError(fmt.Sprintf("project not found: %d", n), nil)
		}
	}
	return out, nil
}

// UpsertProject validates, persists and applies a project definition.
func (s *Service) UpsertProject(ctx context.Context, project models.Project) error {
	if project.Number <= 0 {
		return errors.NewValidationError("project number must be positive", nil)
	}
	project.Title = strings.TrimSpace(project.Title)
	if project.Title == "" {
		return errors.NewValidationError("project title is required", nil)
	}
	for _, item := range project.Items {
		if item.IssueNumber <= 0 || item.Repository == "" {
			return errors.NewValidationError("project items need an issue number and a repository", nil)
		}
	}

	if s.projects != nil {
		if err := s.projects.SaveProject(ctx, project); err != nil {
			return fmt.Errorf("failed to save project: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	projects := make([]models.Project, 0, len(s.snap.Projects)+1)
	replaced := false
	for _, p := range s.snap.Projects {
		if p.Number == project.Number {
			projects = append(projects, project)
			replaced = true
			continue
		}
		projects = append(projects, p)
	}
	if !replaced {
		projects = append(projects, project)
		sort.SliceStable(projects, func(i, j int) bool { return projects[i].Number < projects[j].Number })
	}
	s.snap.Projects = projects
	s.version++
	s.derived = nil
	s.logger.WithField("project", project.Number).Info("Project saved")
	return nil
}

// RemoveProject deletes a project definition.
func (s *Service) RemoveProject(ctx context.Context, number int) error {
	s.mu.RLock()
	exists := false
	for _, p := range s.snap.Projects {
		if p.Number == number {
			exists = true
			break
		}
	}
	s.mu.RUnlock()

	if s.projects != nil {
		if err := s.projects.DeleteProject(ctx, number); err != nil {
			if !(errors.IsNotFound(err) && exists) {
				return err
			}
		}
	} else if !exists {
		return errors.NewNotFoundError(fmt.Sprintf("project not found: %d", number), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	projects := make([]models.Project, 0, len(s.snap.Projects))
	for _, p := range s.snap.Projects {
		if p.Number != number {
			projects = append(projects, p)
		}
	}
	s.snap.Projects = projects
	s.version++
	s.derived = nil
	s.logger.WithField("project", number).Info("Project removed")
	return nil
}

// Report assembles every derived view of the current snapshot.
func (s *Service) Report() models.Report {
	snap, d, now := s.view()
	report := models.Report{
		GeneratedAt:  now,
		FetchedAt:    snap.FetchedAt,
		Members:      d.members,
		Repositories: make([]models.RepositoryTimeline, 0, len(d.repoTimelines)),
		Projects:     make([]models.ProjectTimeline, 0, len(snap.Projects)),
	}
	if d.loaded {
		overall := d.overall
		report.Overall = &overall
	}
	for _, rt := range d.repoTimelines {
		timeline.Refresh(&rt.Schedule, now)
		report.Repositories = append(report.Repositories, rt)
	}
	for _, project := range snap.Projects {
		report.Projects = append(report.Projects, timeline.Project(project, snap.Issues, d.repoIndex, now))
	}
	return report
}

func (s *Service) size(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.pageSize
}

func invalidSort(key views.SortKey) error {
	return errors.NewValidationError(fmt.Sprintf("unknown sort key: %s", key), nil)
}
