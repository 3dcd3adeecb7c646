package models

import "time"

// Report is the full derived view of a snapshot.
type Report struct {
	GeneratedAt  time.Time             `json:"generated_at"`
	FetchedAt    time.Time             `json:"fetched_at"`
	Overall      *OverallStats         `json:"overall"`
	Members      []MemberDetailedStats `json:"members"`
	Repositories []RepositoryTimeline  `json:"repositories"`
	Projects     []ProjectTimeline     `json:"projects"`
}
