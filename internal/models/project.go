package models

import "strconv"

// ProjectItem points at an issue by number and repository name.
type ProjectItem struct {
	IssueNumber int    `json:"issue_number"`
	Repository  string `json:"repository"`
}

// Project groups issues across repositories.
type Project struct {
	Number      int           `json:"number"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Items       []ProjectItem `json:"items"`
}

// Contains reports whether the issue is one of the project items.
func (p Project) Contains(issue Issue) bool {
	for _, item := range p.Items {
		if item.IssueNumber == issue.Number && item.Repository == issue.Repository.Name {
			return true
		}
	}
	return false
}

// RecordKey implements Record.
func (p Project) RecordKey() string {
	return strconv.Itoa(p.Number)
}
