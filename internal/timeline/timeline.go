// Package timeline reconciles issue activity with repository timeline events
// into per contributor activity logs and derives schedule fields for
// repositories and projects.
package timeline

import (
	"math"
	"sort"
	"time"

	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/stats"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
)

// RecentLimit is the length of recent activity feeds.
const RecentLimit = 5

// Progress blend weights.
const (
	issueWeight = 0.7
	timeWeight  = 0.3
)

// NotAvailable labels a duration with a missing endpoint.
const NotAvailable = "N/A"

// Repository builds the timeline of one repository from its issues and
// timeline events. Issues and events of other repositories are ignored.
func Repository(name string, issues []models.Issue, events []models.TimelineEvent, now time.Time) models.RepositoryTimeline {
	scoped := stats.IssuesInRepository(name, issues)
	repoEvents := make([]models.TimelineEvent, 0)
	for _, e := range events {
		if e.Repository.Name == name {
			repoEvents = append(repoEvents, e)
		}
	}

	var sched models.Schedule
	for _, issue := range scoped {
		if t, ok := utils.ParseDate(issue.CreatedAt); ok {
			sched.CreationDate = utils.Earliest(sched.CreationDate, t)
		}
		if t, ok := utils.ParseDate(issue.DueDate); ok {
			sched.PlannedCompletionDate = utils.Latest(sched.PlannedCompletionDate, t)
		}
		if issue.IsClosed() {
			if t, ok := utils.ParseDate(issue.UpdatedAt); ok {
				sched.ActualCompletionDate = utils.Latest(sched.ActualCompletionDate, t)
			}
		}
	}
	countIssues(&sched, scoped)
	Refresh(&sched, now)
	sched.Members = Contributors(scoped, repoEvents)
	sched.RecentActivities = RecentActivities(repoEvents, RecentLimit)

	return models.RepositoryTimeline{Repository: name, Schedule: sched}
}

// Project folds the timelines of the repositories touched by the project's
// issues. Date fields are the min and max over those repository timelines,
// issue counts come from the project's own issues.
func Project(project models.Project, issues []models.Issue, repos map[string]models.RepositoryTimeline, now time.Time) models.ProjectTimeline {
	scoped := stats.ProjectIssues(project, issues)

	touched := make([]string, 0)
	seen := make(map[string]bool)
	for _, issue := range scoped {
		name := issue.Repository.Name
		if !seen[name] {
			seen[name] = true
			touched = append(touched, name)
		}
	}
	sort.Strings(touched)

	var sched models.Schedule
	var members [][]models.Contributor
	recent := make([]models.RecentActivity, 0)
	for _, name := range touched {
		rt, ok := repos[name]
		if !ok {
			continue
		}
		if rt.CreationDate != nil {
			sched.CreationDate = utils.Earliest(sched.CreationDate, *rt.CreationDate)
		}
		if rt.PlannedCompletionDate != nil {
			sched.PlannedCompletionDate = utils.Latest(sched.PlannedCompletionDate, *rt.PlannedCompletionDate)
		}
		if rt.ActualCompletionDate != nil {
			sched.ActualCompletionDate = utils.Latest(sched.ActualCompletionDate, *rt.ActualCompletionDate)
		}
		members = append(members, rt.Members)
		recent = append(recent, rt.RecentActivities...)
	}

	countIssues(&sched, scoped)
	Refresh(&sched, now)
	sched.Members = MergeContributors(members...)
	sched.RecentActivities = newestFirst(recent, RecentLimit)

	return models.ProjectTimeline{Project: project, Repositories: touched, Schedule: sched}
}

// countIssues fills the issue counters. Anything not closed counts as in
// progress so completed plus in progress always equals the total.
func countIssues(sched *models.Schedule, issues []models.Issue) {
	sched.TotalIssues = len(issues)
	for _, issue := range issues {
		if issue.IsClosed() {
			sched.CompletedIssues++
		} else {
			sched.InProgressIssues++
		}
	}
}

// Refresh derives durations, progress and overdue state from the folded
// dates and counts as of now. It only writes scalar fields.
func Refresh(sched *models.Schedule, now time.Time) {
	sched.PlannedDuration = Duration(sched.CreationDate, sched.PlannedCompletionDate)
	sched.ActualDuration = Duration(sched.CreationDate, sched.ActualCompletionDate)
	sched.Progress = Progress(sched.TotalIssues, sched.CompletedIssues, sched.CreationDate, sched.PlannedCompletionDate, now)
	sched.IsOverdue = sched.PlannedCompletionDate != nil && now.After(*sched.PlannedCompletionDate)
}

// Duration labels the whole days between start and end, or N/A when either
// endpoint is missing.
func Duration(start, end *time.Time) string {
	if start == nil || end == nil {
		return NotAvailable
	}
	days := int(math.Ceil(utils.DaysBetween(*start, *end)))
	if days < 0 {
		days = 0
	}
	return FormatDays(days)
}

// Progress blends issue completion with elapsed schedule time:
//
//	0.7 * completed/total*100 + 0.3 * min(100, elapsed/planned*100)
//
// The time term is zero without both a creation and a planned date. When the
// planned date is not after creation the time term is full once now reaches
// it. The result is clamped to [0, 100].
func Progress(total, completed int, creation, planned *time.Time, now time.Time) float64 {
	var issuePct float64
	if total > 0 {
		issuePct = float64(completed) / float64(total) * 100
	}

	var timePct float64
	if creation != nil && planned != nil {
		plannedDays := utils.DaysBetween(*creation, *planned)
		if plannedDays > 0 {
			elapsed := math.Max(0, utils.DaysBetween(*creation, now))
			timePct = math.Min(100, elapsed/plannedDays*100)
		} else if !now.Before(*planned) {
			timePct = 100
		}
	}

	if total == 0 {
		return 0
	}
	progress := issueWeight*issuePct + timeWeight*timePct
	return utils.Round2(math.Max(0, math.Min(100, progress)))
}
