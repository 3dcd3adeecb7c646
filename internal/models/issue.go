package models

import "fmt"

// Issue states
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Comment is a single comment left on an issue.
type Comment struct {
	User      *Member `json:"user"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"created_at"`
}

// Issue is a GitHub issue. Timestamps are kept as received and parsed lazily,
// a malformed value behaves like an absent one.
type Issue struct {
	Number     int           `json:"number"`
	Title      string        `json:"title"`
	Body       string        `json:"body"`
	State      string        `json:"state"`
	Assignee   *Member       `json:"assignee"`
	Repository RepositoryRef `json:"repository"`
	Labels     []string      `json:"labels,omitempty"`
	CreatedAt  string        `json:"created_at"`
	UpdatedAt  string        `json:"updated_at"`
	ClosedAt   string        `json:"closed_at,omitempty"`
	StartDate  string        `json:"start_date,omitempty"`
	DueDate    string        `json:"due_date,omitempty"`
	Comments   []Comment     `json:"comments,omitempty"`
	URL        string        `json:"html_url"`
}

// IsClosed reports whether the issue is closed.
func (i Issue) IsClosed() bool {
	return i.State == StateClosed
}

// AssigneeLogin returns the assignee login or "" when unassigned.
func (i Issue) AssigneeLogin() string {
	return LoginOf(i.Assignee)
}

// RecordKey implements Record.
func (i Issue) RecordKey() string {
	return fmt.Sprintf("%s#%d", i.Repository.Name, i.Number)
}
