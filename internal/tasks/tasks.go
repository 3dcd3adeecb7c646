// Package tasks extracts checkbox task lists from issue bodies.
//
// A task line is a list item whose first token is a one character checkbox:
//
//	- [x] write the migration
//	- [ ] wire the handler
//
// Only a lowercase x marks the task as done. This is a text convention and
// not a markdown parser.
package tasks

import (
	"regexp"
	"strings"

	"github.com/Kamar-Folarin/team-insights/internal/models"
)

var taskLine = regexp.MustCompile(`(?m)^[ \t]*[-*+] \[(.)\][ \t]?(.*)$`)

// Item is a single task line.
type Item struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// ExtractItems returns the task lines of body in order.
func ExtractItems(body string) []Item {
	if body == "" {
		return nil
	}
	matches := taskLine.FindAllStringSubmatch(body, -1)
	items := make([]Item, 0, len(matches))
	for _, m := range matches {
		items = append(items, Item{
			Text: strings.TrimSpace(m[2]),
			Done: m[1] == "x",
		})
	}
	return items
}

// Extract counts the task lines of body.
func Extract(body string) models.TaskMetrics {
	var total, completed int
	for _, item := range ExtractItems(body) {
		total++
		if item.Done {
			completed++
		}
	}
	return models.NewTaskMetrics(total, completed)
}

// Sum adds up metrics and derives the percentage from the summed counts.
func Sum(metrics ...models.TaskMetrics) models.TaskMetrics {
	var total, completed int
	for _, m := range metrics {
		total += m.Total
		completed += m.Completed
	}
	return models.NewTaskMetrics(total, completed)
}

// ForIssues sums the task metrics of every issue body.
func ForIssues(issues []models.Issue) models.TaskMetrics {
	var total, completed int
	for _, issue := range issues {
		m := Extract(issue.Body)
		total += m.Total
		completed += m.Completed
	}
	return models.NewTaskMetrics(total, completed)
}
