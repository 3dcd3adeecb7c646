package models

import "time"

// Activity is one entry in a contributor's activity log.
type Activity struct {
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Repository string    `json:"repository"`
	Date       time.Time `json:"date"`
	URL        string    `json:"url,omitempty"`
}

// Contributor is the merged activity record of one login within a repository
// or project.
type Contributor struct {
	Login             string     `json:"login"`
	AvatarURL         string     `json:"avatar_url"`
	Contributions     float64    `json:"contributions"`
	FirstContribution *time.Time `json:"first_contribution"`
	LastContribution  *time.Time `json:"last_contribution"`
	Activities        []Activity `json:"activities"`
	TotalHours        int        `json:"total_hours"`
	TotalDays         int        `json:"total_days"`
	TotalTimeSpent    string     `json:"total_time_spent"`
}

// RecentActivity is an entry of the recent activity feed.
type RecentActivity struct {
	Type       EventType  `json:"type"`
	Title      string     `json:"title"`
	Content    string     `json:"content,omitempty"`
	Repository string     `json:"repository"`
	Date       *time.Time `json:"date"`
	URL        string     `json:"url,omitempty"`
	Author     Member     `json:"author"`
}

// Schedule holds the fields shared by repository and project timelines.
type Schedule struct {
	CreationDate          *time.Time       `json:"creation_date"`
	PlannedCompletionDate *time.Time       `json:"planned_completion_date"`
	ActualCompletionDate  *time.Time       `json:"actual_completion_date"`
	PlannedDuration       string           `json:"planned_duration"`
	ActualDuration        string           `json:"actual_duration"`
	TotalIssues           int              `json:"total_issues"`
	CompletedIssues       int              `json:"completed_issues"`
	InProgressIssues      int              `json:"in_progress_issues"`
	Progress              float64          `json:"progress"`
	IsOverdue             bool             `json:"is_overdue"`
	Members               []Contributor    `json:"members"`
	RecentActivities      []RecentActivity `json:"recent_activities"`
}

// RepositoryTimeline is the schedule view of one repository.
type RepositoryTimeline struct {
	Repository string `json:"repository"`
	Schedule
}

// ProjectTimeline is the schedule view of one project, folded from the
// timelines of the repositories its issues live in.
type ProjectTimeline struct {
	Project      Project  `json:"project"`
	Repositories []string `json:"repositories"`
	Schedule
}
