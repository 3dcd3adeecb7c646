package models

import (
	"math"
	"time"
)

// TaskMetrics counts completed versus total items.
type TaskMetrics struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Percentage float64 `json:"percentage"`
}

// NewTaskMetrics builds metrics with the percentage derived from the counts,
// rounded to two decimals. Total zero yields a zero percentage.
func NewTaskMetrics(total, completed int) TaskMetrics {
	m := TaskMetrics{Total: total, Completed: completed}
	if total > 0 {
		m.Percentage = math.Round(float64(completed)/float64(total)*10000) / 100
	}
	return m
}

// IssueStatus is the status bucket of an issue.
type IssueStatus string

const (
	StatusOpen       IssueStatus = "open"
	StatusInProgress IssueStatus = "in_progress"
	StatusClosed     IssueStatus = "closed"
	// StatusUnbucketed is an open issue whose tasks are all completed.
	StatusUnbucketed IssueStatus = ""
)

// StatusDistribution counts issues per status bucket.
type StatusDistribution struct {
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Closed     int `json:"closed"`
}

// DueStatus classifies an issue against its due date.
type DueStatus string

const (
	DueSafe    DueStatus = "safe"
	DueSoon    DueStatus = "soon"
	DueOverdue DueStatus = "overdue"
	DueNone    DueStatus = "none"
)

// DueDateStatus is a due status with its display label.
type DueDateStatus struct {
	Status DueStatus `json:"status"`
	Label  string    `json:"label"`
}

// MemberStats summarizes the issues assigned to a member.
type MemberStats struct {
	Member     Member      `json:"member"`
	IssueStats TaskMetrics `json:"issue_stats"`
	TaskStats  TaskMetrics `json:"task_stats"`
	Issues     []Issue     `json:"issues"`
}

// MemberCodeStats summarizes a member's commits and pull requests.
type MemberCodeStats struct {
	TotalCommits         int           `json:"total_commits"`
	TotalPRs             int           `json:"total_prs"`
	MergedPRs            int           `json:"merged_prs"`
	LinesAdded           int           `json:"lines_added"`
	LinesDeleted         int           `json:"lines_deleted"`
	FilesChanged         int           `json:"files_changed"`
	AverageCommitsPerDay float64       `json:"average_commits_per_day"`
	AveragePRSize        float64       `json:"average_pr_size"`
	Commits              []Commit      `json:"commits"`
	PullRequests         []PullRequest `json:"pull_requests"`
}

// MemberDetailedStats combines issue and code statistics for one member.
type MemberDetailedStats struct {
	MemberStats
	CodeStats MemberCodeStats `json:"code_stats"`
}

// OverallStats summarizes every issue in a snapshot.
type OverallStats struct {
	Issues             TaskMetrics        `json:"issues"`
	Tasks              TaskMetrics        `json:"tasks"`
	StatusDistribution StatusDistribution `json:"status_distribution"`
}

// DailyActivity counts activity for one UTC calendar day.
type DailyActivity struct {
	Date         string `json:"date"`
	Commits      int    `json:"commits"`
	PullRequests int    `json:"pull_requests"`
	Issues       int    `json:"issues"`
}

// RepositoryStats summarizes one repository.
type RepositoryStats struct {
	Repository         Repository         `json:"repository"`
	Issues             TaskMetrics        `json:"issues"`
	Tasks              TaskMetrics        `json:"tasks"`
	StatusDistribution StatusDistribution `json:"status_distribution"`
	TotalPRs           int                `json:"total_prs"`
	MergedPRs          int                `json:"merged_prs"`
	TotalCommits       int                `json:"total_commits"`
	LinesAdded         int                `json:"lines_added"`
	LinesDeleted       int                `json:"lines_deleted"`
	Contributors       []string           `json:"contributors"`
	DailyActivity      []DailyActivity    `json:"daily_activity"`
}

// ProjectState is open while any issue in scope is open.
type ProjectState string

const (
	ProjectOpen   ProjectState = "open"
	ProjectClosed ProjectState = "closed"
)

// ProjectStats summarizes the issues of one project.
type ProjectStats struct {
	Project            Project            `json:"project"`
	State              ProjectState       `json:"state"`
	Issues             TaskMetrics        `json:"issues"`
	Tasks              TaskMetrics        `json:"tasks"`
	StatusDistribution StatusDistribution `json:"status_distribution"`
	Members            []string           `json:"members"`
	Repositories       []string           `json:"repositories"`
	StartDate          *time.Time         `json:"start_date"`
	LatestActivity     *time.Time         `json:"latest_activity"`
}

// IssueView is an issue enriched with its derived status for list views.
type IssueView struct {
	Issue
	Status  IssueStatus   `json:"status"`
	Tasks   TaskMetrics   `json:"tasks"`
	DueDate DueDateStatus `json:"due"`
}
