package stats

import (
	"sort"

	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/tasks"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
)

// ProjectIssues returns the issues whose (number, repository) pair is listed
// in the project.
func ProjectIssues(project models.Project, issues []models.Issue) []models.Issue {
	out := make([]models.Issue, 0)
	for _, issue := range issues {
		if project.Contains(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// ProjectStats summarizes the issues of project. The project is open while
// any of its issues is open.
func ProjectStats(project models.Project, issues []models.Issue) models.ProjectStats {
	scoped := ProjectIssues(project, issues)

	out := models.ProjectStats{
		Project:            project,
		State:              models.ProjectClosed,
		Tasks:              tasks.ForIssues(scoped),
		StatusDistribution: StatusDistribution(scoped),
	}

	closed := 0
	members := make(map[string]struct{})
	repos := make(map[string]struct{})
	for _, issue := range scoped {
		if issue.IsClosed() {
			closed++
		} else {
			out.State = models.ProjectOpen
		}
		if login := issue.AssigneeLogin(); login != "" {
			members[login] = struct{}{}
		}
		repos[issue.Repository.Name] = struct{}{}

		start, ok := utils.ParseDate(issue.StartDate)
		if !ok {
			start, ok = utils.ParseDate(issue.CreatedAt)
		}
		if ok {
			out.StartDate = utils.Earliest(out.StartDate, start)
		}
		for _, ts := range []string{issue.CreatedAt, issue.UpdatedAt} {
			if t, ok := utils.ParseDate(ts); ok {
				out.LatestActivity = utils.Latest(out.LatestActivity, t)
			}
		}
	}
	out.Issues = models.NewTaskMetrics(len(scoped), closed)
	out.Members = sortedKeys(members)
	out.Repositories = sortedKeys(repos)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
