package models

// Member is a team member as reported by GitHub. Login is the join key used to
// partition issues, pull requests, commits and timeline events.
type Member struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// LoginOf returns the login of m or "" when m is nil.
func LoginOf(m *Member) string {
	if m == nil {
		return ""
	}
	return m.Login
}

// RecordKey implements Record.
func (m Member) RecordKey() string {
	return m.Login
}
