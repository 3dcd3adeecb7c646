// Package views filters, sorts and paginates derived collections for list
// views. Nothing here mutates its input.
//
// Filter groups combine with AND. Values selected within one group combine
// with OR, and an empty group matches everything.
package views

import (
	"strings"
	"time"

	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/stats"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
)

// DateRange bounds a creation date by whole UTC days, both ends inclusive.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether the timestamp falls within the range. An empty
// range matches everything, a bounded range never matches a missing date.
func (r DateRange) Contains(timestamp string) bool {
	if r.From == nil && r.To == nil {
		return true
	}
	t, ok := utils.ParseDate(timestamp)
	if !ok {
		return false
	}
	if r.From != nil && t.Before(utils.StartOfDay(*r.From)) {
		return false
	}
	if r.To != nil && !t.Before(utils.StartOfDay(*r.To).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// IssueFilter selects issues.
type IssueFilter struct {
	Search       string
	Repositories []string
	Statuses     []models.IssueStatus
	Assignees    []string
	Projects     []models.Project
	Created      DateRange
}

// Match reports whether issue passes every filter group.
func (f IssueFilter) Match(issue models.Issue) bool {
	if !containsFold(f.Search, issue.Title, issue.Body) {
		return false
	}
	if !anyOf(f.Repositories, issue.Repository.Name) {
		return false
	}
	if len(f.Statuses) > 0 && !anyOf(f.Statuses, stats.ClassifyStatus(issue)) {
		return false
	}
	if !anyOf(f.Assignees, issue.AssigneeLogin()) {
		return false
	}
	if len(f.Projects) > 0 {
		in := false
		for _, p := range f.Projects {
			if p.Contains(issue) {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}
	return f.Created.Contains(issue.CreatedAt)
}

// FilterIssues returns the issues matching f in their original order.
func FilterIssues(issues []models.Issue, f IssueFilter) []models.Issue {
	return filter(issues, f.Match)
}

// Pull request states accepted by PullRequestFilter.
const (
	PullOpen   = "open"
	PullClosed = "closed"
	PullMerged = "merged"
)

// PullRequestFilter selects pull requests.
type PullRequestFilter struct {
	Search       string
	Repositories []string
	Authors      []string
	States       []string
	Created      DateRange
}

// Match reports whether pr passes every filter group.
func (f PullRequestFilter) Match(pr models.PullRequest) bool {
	if !containsFold(f.Search, pr.Title, pr.Body) {
		return false
	}
	if !anyOf(f.Repositories, pr.Repository.Name) {
		return false
	}
	if !anyOf(f.Authors, pr.AuthorLogin()) {
		return false
	}
	if !anyOf(f.States, pullState(pr)) {
		return false
	}
	return f.Created.Contains(pr.CreatedAt)
}

func pullState(pr models.PullRequest) string {
	if pr.IsMerged() {
		return PullMerged
	}
	if pr.State == models.StateClosed {
		return PullClosed
	}
	return PullOpen
}

// FilterPullRequests returns the pull requests matching f in order.
func FilterPullRequests(pulls []models.PullRequest, f PullRequestFilter) []models.PullRequest {
	return filter(pulls, f.Match)
}

// ProjectFilter selects projects by title or description and state.
type ProjectFilter struct {
	Search string
	States []models.ProjectState
}

// Match reports whether p passes every filter group.
func (f ProjectFilter) Match(p models.ProjectStats) bool {
	if !containsFold(f.Search, p.Project.Title, p.Project.Description) {
		return false
	}
	return anyOf(f.States, p.State)
}

// FilterProjects returns the projects matching f in order.
func FilterProjects(projects []models.ProjectStats, f ProjectFilter) []models.ProjectStats {
	return filter(projects, f.Match)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func anyOf[T comparable](selected []T, value T) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

func containsFold(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
