package models

import "fmt"

// PullRequest is a GitHub pull request together with its diff statistics.
type PullRequest struct {
	Number       int           `json:"number"`
	Title        string        `json:"title"`
	Body         string        `json:"body,omitempty"`
	State        string        `json:"state"`
	User         *Member       `json:"user"`
	Repository   RepositoryRef `json:"repository"`
	MergedAt     string        `json:"merged_at,omitempty"`
	Additions    int           `json:"additions"`
	Deletions    int           `json:"deletions"`
	ChangedFiles int           `json:"changed_files"`
	CreatedAt    string        `json:"created_at"`
	URL          string        `json:"html_url"`
}

// IsMerged reports whether the pull request carries a merge timestamp.
func (p PullRequest) IsMerged() bool {
	return p.MergedAt != ""
}

// AuthorLogin returns the author login or "".
func (p PullRequest) AuthorLogin() string {
	return LoginOf(p.User)
}

// RecordKey implements Record.
func (p PullRequest) RecordKey() string {
	return fmt.Sprintf("%s#%d", p.Repository.Name, p.Number)
}
