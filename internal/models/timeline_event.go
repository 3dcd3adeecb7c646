package models

// EventType is the kind of a repository timeline event.
type EventType string

const (
	EventCommit       EventType = "commit"
	EventIssueComment EventType = "issue_comment"
	EventPRComment    EventType = "pr_comment"
	EventPullRequest  EventType = "pull_request"
	EventPush         EventType = "push"
)

// TimelineEvent is a unit of contributor activity attached to a repository,
// independent of issue and pull request records.
type TimelineEvent struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	Repository RepositoryRef `json:"repository"`
	Actor      *Member       `json:"actor"`
	Title      string        `json:"title"`
	Content    string        `json:"content,omitempty"`
	CreatedAt  string        `json:"created_at"`
	URL        string        `json:"url,omitempty"`
}

// ActorLogin returns the actor login or "".
func (e TimelineEvent) ActorLogin() string {
	return LoginOf(e.Actor)
}

// RecordKey implements Record.
func (e TimelineEvent) RecordKey() string {
	return e.ID
}
