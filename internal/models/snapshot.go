package models

import "time"

// RecordKind names a persisted snapshot collection.
type RecordKind string

const (
	KindRepositories   RecordKind = "repositories"
	KindMembers        RecordKind = "members"
	KindIssues         RecordKind = "issues"
	KindPullRequests   RecordKind = "pull_requests"
	KindCommits        RecordKind = "commits"
	KindTimelineEvents RecordKind = "timeline_events"
)

// Record is anything stored under a natural key.
type Record interface {
	RecordKey() string
}

// Snapshot is the immutable result of one fetch cycle.
type Snapshot struct {
	Repositories []Repository    `json:"repositories"`
	Members      []Member        `json:"members"`
	Issues       []Issue         `json:"issues"`
	PullRequests []PullRequest   `json:"pull_requests"`
	Commits      []Commit        `json:"commits"`
	Events       []TimelineEvent `json:"timeline_events"`
	Projects     []Project       `json:"projects"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// Records returns the collection of the given kind as records.
func (s *Snapshot) Records(kind RecordKind) []Record {
	var out []Record
	switch kind {
	case KindRepositories:
		out = toRecords(s.Repositories)
	case KindMembers:
		out = toRecords(s.Members)
	case KindIssues:
		out = toRecords(s.Issues)
	case KindPullRequests:
		out = toRecords(s.PullRequests)
	case KindCommits:
		out = toRecords(s.Commits)
	case KindTimelineEvents:
		out = toRecords(s.Events)
	}
	return out
}

// SnapshotKinds lists the collections a sync persists, in save order.
var SnapshotKinds = []RecordKind{
	KindRepositories,
	KindMembers,
	KindIssues,
	KindPullRequests,
	KindCommits,
	KindTimelineEvents,
}

func toRecords[T Record](items []T) []Record {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
