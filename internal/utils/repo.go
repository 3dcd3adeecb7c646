package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRepoURL splits a repository reference into owner and name. It accepts
// full GitHub URLs as well as the short "owner/name" form.
func ParseRepoURL(repoURL string) (owner, name string, err error) {
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return "", "", fmt.Errorf("empty repository reference")
	}

	path := repoURL
	if strings.Contains(repoURL, "://") {
		u, err := url.Parse(repoURL)
		if err != nil {
			return "", "", err
		}
		path = u.Path
	}

	parts := strings.Split(strings.Trim(strings.TrimSuffix(path, ".git"), "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GitHub repository reference: %s", repoURL)
	}

	return parts[0], parts[1], nil
}
