package views

import (
	"sort"
	"strings"
	"time"

	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/tasks"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
)

// SortKey names a sort order.
type SortKey string

const (
	SortName          SortKey = "name"
	SortProgress      SortKey = "progress"
	SortStartDate     SortKey = "start_date"
	SortNewest        SortKey = "newest"
	SortOldest        SortKey = "oldest"
	SortMostTasks     SortKey = "most_tasks"
	SortMostCompleted SortKey = "most_completed"
)

// SortKeys lists the supported keys.
var SortKeys = []SortKey{SortName, SortProgress, SortStartDate, SortNewest, SortOldest, SortMostTasks, SortMostCompleted}

// Valid reports whether k is a supported key. The empty key is valid and
// keeps the original order.
func (k SortKey) Valid() bool {
	if k == "" {
		return true
	}
	for _, known := range SortKeys {
		if k == known {
			return true
		}
	}
	return false
}

// SortFields are the values a sort key reads from an item.
type SortFields struct {
	Name      string
	Progress  float64
	Start     *time.Time
	Created   *time.Time
	Tasks     int
	Completed int
}

// Sort returns a sorted copy of items. Ties keep the original order, and an
// unknown key returns the items unchanged. Items missing a date sort last.
func Sort[T any](items []T, key SortKey, fields func(T) SortFields) []T {
	out := append([]T(nil), items...)
	if len(out) < 2 {
		return out
	}

	keyed := make([]SortFields, len(out))
	for i, item := range out {
		keyed[i] = fields(item)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}

	var less func(a, b SortFields) bool
	switch key {
	case SortName:
		less = func(a, b SortFields) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortProgress:
		less = func(a, b SortFields) bool { return a.Progress > b.Progress }
	case SortStartDate:
		less = func(a, b SortFields) bool { return before(a.Start, b.Start) }
	case SortNewest:
		less = func(a, b SortFields) bool { return after(a.Created, b.Created) }
	case SortOldest:
		less = func(a, b SortFields) bool { return before(a.Created, b.Created) }
	case SortMostTasks:
		less = func(a, b SortFields) bool { return a.Tasks > b.Tasks }
	case SortMostCompleted:
		less = func(a, b SortFields) bool { return a.Completed > b.Completed }
	default:
		return out
	}

	sort.SliceStable(idx, func(i, j int) bool { return less(keyed[idx[i]], keyed[idx[j]]) })

	sorted := make([]T, len(out))
	for i, k := range idx {
		sorted[i] = out[k]
	}
	return sorted
}

func before(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	return a.Before(*b)
}

func after(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	return a.After(*b)
}

// IssueFields reads sort values from an issue. Progress is task completion.
func IssueFields(issue models.Issue) SortFields {
	m := tasks.Extract(issue.Body)
	return SortFields{
		Name:      issue.Title,
		Progress:  m.Percentage,
		Start:     utils.ParseDatePtr(issue.StartDate),
		Created:   utils.ParseDatePtr(issue.CreatedAt),
		Tasks:     m.Total,
		Completed: m.Completed,
	}
}

// SortIssues sorts issues by key.
func SortIssues(issues []models.Issue, key SortKey) []models.Issue {
	return Sort(issues, key, IssueFields)
}

// SortIssueViews sorts enriched issues by key.
func SortIssueViews(issues []models.IssueView, key SortKey) []models.IssueView {
	return Sort(issues, key, func(v models.IssueView) SortFields {
		return SortFields{
			Name:      v.Title,
			Progress:  v.Tasks.Percentage,
			Start:     utils.ParseDatePtr(v.StartDate),
			Created:   utils.ParseDatePtr(v.CreatedAt),
			Tasks:     v.Tasks.Total,
			Completed: v.Tasks.Completed,
		}
	})
}

// SortPullRequests sorts pull requests. Task keys order by changed lines.
func SortPullRequests(pulls []models.PullRequest, key SortKey) []models.PullRequest {
	return Sort(pulls, key, func(pr models.PullRequest) SortFields {
		created := utils.ParseDatePtr(pr.CreatedAt)
		return SortFields{
			Name:      pr.Title,
			Start:     created,
			Created:   created,
			Tasks:     pr.Additions + pr.Deletions,
			Completed: pr.ChangedFiles,
		}
	})
}

// SortProjects sorts project statistics. Progress is issue completion and
// newest or oldest order by the latest issue activity.
func SortProjects(projects []models.ProjectStats, key SortKey) []models.ProjectStats {
	return Sort(projects, key, func(p models.ProjectStats) SortFields {
		return SortFields{
			Name:      p.Project.Title,
			Progress:  p.Issues.Percentage,
			Start:     p.StartDate,
			Created:   p.LatestActivity,
			Tasks:     p.Tasks.Total,
			Completed: p.Tasks.Completed,
		}
	})
}
