package models

// Repository is a monitored GitHub repository.
type Repository struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name,omitempty"`
	Description string `json:"description"`
	URL         string `json:"html_url"`
}

// RepositoryRef references a repository by name from issues, pull requests,
// commits and events.
type RepositoryRef struct {
	Name string `json:"name"`
}

// RecordKey implements Record.
func (r Repository) RecordKey() string {
	return r.Name
}
