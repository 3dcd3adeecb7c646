package stats

import (
	"sort"
	"time"

	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/tasks"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
)

// ActivityWindowDays is the length of the repository activity series.
const ActivityWindowDays = 7

// RepositoryStats summarizes the issues, pull requests and commits of repo.
// The activity series covers the last ActivityWindowDays UTC days up to and
// including the day of now, oldest first.
func RepositoryStats(repo models.Repository, issues []models.Issue, pulls []models.PullRequest, commits []models.Commit, now time.Time) models.RepositoryStats {
	repoIssues := IssuesInRepository(repo.Name, issues)

	out := models.RepositoryStats{
		Repository:         repo,
		Tasks:              tasks.ForIssues(repoIssues),
		StatusDistribution: StatusDistribution(repoIssues),
	}

	closed := 0
	contributors := make(map[string]struct{})
	for _, issue := range repoIssues {
		if issue.IsClosed() {
			closed++
		}
		if login := issue.AssigneeLogin(); login != "" {
			contributors[login] = struct{}{}
		}
	}
	out.Issues = models.NewTaskMetrics(len(repoIssues), closed)

	var repoPulls []models.PullRequest
	for _, pr := range pulls {
		if pr.Repository.Name != repo.Name {
			continue
		}
		repoPulls = append(repoPulls, pr)
		out.TotalPRs++
		if pr.IsMerged() {
			out.MergedPRs++
		}
		out.LinesAdded += pr.Additions
		out.LinesDeleted += pr.Deletions
		if login := pr.AuthorLogin(); login != "" {
			contributors[login] = struct{}{}
		}
	}

	var repoCommits []models.Commit
	for _, c := range commits {
		if c.Repository.Name != repo.Name {
			continue
		}
		repoCommits = append(repoCommits, c)
		out.TotalCommits++
		if login := c.AuthorLogin(); login != "" {
			contributors[login] = struct{}{}
		}
	}

	out.Contributors = make([]string, 0, len(contributors))
	for login := range contributors {
		out.Contributors = append(out.Contributors, login)
	}
	sort.Strings(out.Contributors)

	out.DailyActivity = DailyActivity(repoIssues, repoPulls, repoCommits, now, ActivityWindowDays)
	return out
}

// DailyActivity counts commits by commit date, pull requests by creation and
// issues by creation for each of the last days UTC days ending on now.
func DailyActivity(issues []models.Issue, pulls []models.PullRequest, commits []models.Commit, now time.Time, days int) []models.DailyActivity {
	series := make([]models.DailyActivity, 0, days)
	today := utils.StartOfDay(now)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		entry := models.DailyActivity{Date: utils.DayKey(day)}
		for _, c := range commits {
			if t, ok := utils.ParseDate(c.Date); ok && utils.InDay(t, day) {
				entry.Commits++
			}
		}
		for _, pr := range pulls {
			if t, ok := utils.ParseDate(pr.CreatedAt); ok && utils.InDay(t, day) {
				entry.PullRequests++
			}
		}
		for _, issue := range issues {
			if t, ok := utils.ParseDate(issue.CreatedAt); ok && utils.InDay(t, day) {
				entry.Issues++
			}
		}
		series = append(series, entry)
	}
	return series
}

// IssuesInRepository filters issues by repository name.
func IssuesInRepository(name string, issues []models.Issue) []models.Issue {
	out := make([]models.Issue, 0)
	for _, issue := range issues {
		if issue.Repository.Name == name {
			out = append(out, issue)
		}
	}
	return out
}

// Repositories returns the snapshot repositories, adding any repository that
// is only referenced by an issue, pull request or commit.
func Repositories(snap models.Snapshot) []models.Repository {
	out := append([]models.Repository(nil), snap.Repositories...)
	seen := make(map[string]bool, len(out))
	for _, r := range out {
		seen[r.Name] = true
	}
	add := func(ref models.RepositoryRef) {
		if ref.Name == "" || seen[ref.Name] {
			return
		}
		seen[ref.Name] = true
		out = append(out, models.Repository{Name: ref.Name})
	}
	for _, issue := range snap.Issues {
		add(issue.Repository)
	}
	for _, pr := range snap.PullRequests {
		add(pr.Repository)
	}
	for _, c := range snap.Commits {
		add(c.Repository)
	}
	return out
}
