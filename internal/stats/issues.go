package stats

import (
	"time"

	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/tasks"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
)

// DueSoonWindow is how far ahead a due date counts as due soon.
const DueSoonWindow = 7 * 24 * time.Hour

// ClassifyStatus buckets an issue. An open issue with no completed tasks is
// open, an open issue with some but not all tasks completed is in progress and
// a closed issue is closed. An open issue with every task completed matches no
// bucket and yields StatusUnbucketed.
func ClassifyStatus(issue models.Issue) models.IssueStatus {
	if issue.IsClosed() {
		return models.StatusClosed
	}
	if issue.State != models.StateOpen {
		return models.StatusUnbucketed
	}
	m := tasks.Extract(issue.Body)
	switch {
	case m.Completed == 0:
		return models.StatusOpen
	case m.Completed < m.Total:
		return models.StatusInProgress
	}
	return models.StatusUnbucketed
}

// StatusDistribution counts issues per status bucket.
func StatusDistribution(issues []models.Issue) models.StatusDistribution {
	var d models.StatusDistribution
	for _, issue := range issues {
		switch ClassifyStatus(issue) {
		case models.StatusOpen:
			d.Open++
		case models.StatusInProgress:
			d.InProgress++
		case models.StatusClosed:
			d.Closed++
		}
	}
	return d
}

// Overall summarizes all issues of a snapshot.
func Overall(issues []models.Issue) models.OverallStats {
	closed := 0
	for _, issue := range issues {
		if issue.IsClosed() {
			closed++
		}
	}
	return models.OverallStats{
		Issues:             models.NewTaskMetrics(len(issues), closed),
		Tasks:              tasks.ForIssues(issues),
		StatusDistribution: StatusDistribution(issues),
	}
}

// DueDate classifies an issue against its due date at now.
func DueDate(issue models.Issue, now time.Time) models.DueDateStatus {
	if issue.IsClosed() {
		return models.DueDateStatus{Status: models.DueSafe, Label: "Completed"}
	}
	due, ok := utils.ParseDeadline(issue.DueDate)
	if !ok {
		return models.DueDateStatus{Status: models.DueNone, Label: "No Due Date"}
	}
	switch {
	case !now.Before(due):
		return models.DueDateStatus{Status: models.DueOverdue, Label: "Overdue"}
	case due.Sub(now) <= DueSoonWindow:
		return models.DueDateStatus{Status: models.DueSoon, Label: "Due Soon"}
	}
	return models.DueDateStatus{Status: models.DueSafe, Label: "On Track"}
}

// IssueView enriches an issue with its derived status.
func IssueView(issue models.Issue, now time.Time) models.IssueView {
	return models.IssueView{
		Issue:   issue,
		Status:  ClassifyStatus(issue),
		Tasks:   tasks.Extract(issue.Body),
		DueDate: DueDate(issue, now),
	}
}
