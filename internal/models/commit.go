package models

// Commit is a single commit. Author is nil when GitHub could not resolve the
// commit email to an account.
type Commit struct {
	SHA        string        `json:"sha"`
	Message    string        `json:"message"`
	Repository RepositoryRef `json:"repository"`
	Author     *Member       `json:"author"`
	Date       string        `json:"date"`
	URL        string        `json:"html_url"`
}

// AuthorLogin returns the resolved author login or "".
func (c Commit) AuthorLogin() string {
	return LoginOf(c.Author)
}

// RecordKey implements Record.
func (c Commit) RecordKey() string {
	return c.Repository.Name + "@" + c.SHA
}
