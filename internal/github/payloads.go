package github

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Kamar-Folarin/team-insights/internal/models"
)

// GitHub REST payloads, reduced to the fields the snapshot needs.

type userPayload struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

func (u *userPayload) member() *models.Member {
	if u == nil || u.Login == "" {
		return nil
	}
	return &models.Member{Login: u.Login, AvatarURL: u.AvatarURL}
}

type repoPayload struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
}

func (r repoPayload) repository() models.Repository {
	return models.Repository{
		Name:        r.Name,
		FullName:    r.FullName,
		Description: r.Description,
		URL:         r.HTMLURL,
	}
}

type issuePayload struct {
	Number    int          `json:"number"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	State     string       `json:"state"`
	Assignee  *userPayload `json:"assignee"`
	Labels    []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Comments  int    `json:"comments"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	ClosedAt  string `json:"closed_at"`
	Milestone *struct {
		DueOn string `json:"due_on"`
	} `json:"milestone"`
	HTMLURL     string          `json:"html_url"`
	PullRequest json.RawMessage `json:"pull_request"`
}

// scheduleLine matches "Start: 2024-03-01" or "**Due date**: 2024-03-31"
// lines in an issue body.
var scheduleLine = regexp.MustCompile(`(?im)^[ \t>*_-]*(start|due)(?:[ _-]?date)?[*_]*[ \t]*:[ \t]*(\d{4}-\d{2}-\d{2})`)

func (p issuePayload) issue(repo string) models.Issue {
	issue := models.Issue{
		Number:     p.Number,
		Title:      p.Title,
		Body:       p.Body,
		State:      p.State,
		Assignee:   p.Assignee.member(),
		Repository: models.RepositoryRef{Name: repo},
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		ClosedAt:   p.ClosedAt,
		URL:        p.HTMLURL,
	}
	for _, l := range p.Labels {
		issue.Labels = append(issue.Labels, l.Name)
	}
	for _, m := range scheduleLine.FindAllStringSubmatch(p.Body, -1) {
		switch strings.ToLower(m[1]) {
		case "start":
			if issue.StartDate == "" {
				issue.StartDate = m[2]
			}
		case "due":
			if issue.DueDate == "" {
				issue.DueDate = m[2]
			}
		}
	}
	if issue.DueDate == "" && p.Milestone != nil {
		issue.DueDate = p.Milestone.DueOn
	}
	return issue
}

func (p issuePayload) isPullRequest() bool {
	return len(p.PullRequest) > 0 && string(p.PullRequest) != "null"
}

type commentPayload struct {
	User      *userPayload `json:"user"`
	Body      string       `json:"body"`
	CreatedAt string       `json:"created_at"`
}

type pullPayload struct {
	Number       int          `json:"number"`
	Title        string       `json:"title"`
	Body         string       `json:"body"`
	State        string       `json:"state"`
	User         *userPayload `json:"user"`
	MergedAt     string       `json:"merged_at"`
	Additions    int          `json:"additions"`
	Deletions    int          `json:"deletions"`
	ChangedFiles int          `json:"changed_files"`
	CreatedAt    string       `json:"created_at"`
	HTMLURL      string       `json:"html_url"`
}

func (p pullPayload) pullRequest(repo string) models.PullRequest {
	return models.PullRequest{
		Number:       p.Number,
		Title:        p.Title,
		Body:         p.Body,
		State:        p.State,
		User:         p.User.member(),
		Repository:   models.RepositoryRef{Name: repo},
		MergedAt:     p.MergedAt,
		Additions:    p.Additions,
		Deletions:    p.Deletions,
		ChangedFiles: p.ChangedFiles,
		CreatedAt:    p.CreatedAt,
		URL:          p.HTMLURL,
	}
}

type commitPayload struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author  *userPayload `json:"author"`
	HTMLURL string       `json:"html_url"`
}

func (p commitPayload) commit(repo string) models.Commit {
	return models.Commit{
		SHA:        p.SHA,
		Message:    p.Commit.Message,
		Repository: models.RepositoryRef{Name: repo},
		Author:     p.Author.member(),
		Date:       p.Commit.Author.Date,
		URL:        p.HTMLURL,
	}
}

type eventPayload struct {
	ID    string      `json:"id"`
	Type  string      `json:"type"`
	Actor userPayload `json:"actor"`
	Repo  struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

type pushEvent struct {
	Ref     string `json:"ref"`
	Size    int    `json:"size"`
	Commits []struct {
		Message string `json:"message"`
	} `json:"commits"`
}

type pullRequestEvent struct {
	Action      string `json:"action"`
	PullRequest struct {
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
	} `json:"pull_request"`
}

type commentEvent struct {
	Issue struct {
		Title       string          `json:"title"`
		PullRequest json.RawMessage `json:"pull_request"`
	} `json:"issue"`
	PullRequest struct {
		Title string `json:"title"`
	} `json:"pull_request"`
	Comment struct {
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
	} `json:"comment"`
}

// timelineEvent maps a GitHub event to a timeline event. Unknown event types
// keep their GitHub name as kind. A payload that fails to decode leaves the
// title and content empty.
func (p eventPayload) timelineEvent(repo string) models.TimelineEvent {
	e := models.TimelineEvent{
		ID:         p.ID,
		Type:       models.EventType(p.Type),
		Repository: models.RepositoryRef{Name: repo},
		Actor:      p.Actor.member(),
		Title:      p.Type,
		CreatedAt:  p.CreatedAt,
	}

	switch p.Type {
	case "PushEvent":
		var push pushEvent
		_ = json.Unmarshal(p.Payload, &push)
		e.Type = models.EventPush
		size := push.Size
		if size == 0 {
			size = len(push.Commits)
		}
		e.Title = fmt.Sprintf("Pushed %d commit(s) to %s", size, strings.TrimPrefix(push.Ref, "refs/heads/"))
		if len(push.Commits) > 0 {
			e.Content = push.Commits[len(push.Commits)-1].Message
		}
	case "PullRequestEvent":
		var pr pullRequestEvent
		_ = json.Unmarshal(p.Payload, &pr)
		e.Type = models.EventPullRequest
		e.Title = pr.PullRequest.Title
		e.Content = pr.Action
		e.URL = pr.PullRequest.HTMLURL
	case "IssueCommentEvent":
		var c commentEvent
		_ = json.Unmarshal(p.Payload, &c)
		e.Type = models.EventIssueComment
		if len(c.Issue.PullRequest) > 0 && string(c.Issue.PullRequest) != "null" {
			e.Type = models.EventPRComment
		}
		e.Title = c.Issue.Title
		e.Content = c.Comment.Body
		e.URL = c.Comment.HTMLURL
	case "PullRequestReviewCommentEvent":
		var c commentEvent
		_ = json.Unmarshal(p.Payload, &c)
		e.Type = models.EventPRComment
		e.Title = c.PullRequest.Title
		e.Content = c.Comment.Body
		e.URL = c.Comment.HTMLURL
	}
	return e
}

// commitEvent turns a commit into a timeline event.
func commitEvent(c models.Commit) models.TimelineEvent {
	title := c.Message
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	return models.TimelineEvent{
		ID:         "commit:" + c.Repository.Name + ":" + c.SHA,
		Type:       models.EventCommit,
		Repository: c.Repository,
		Actor:      c.Author,
		Title:      title,
		Content:    c.Message,
		CreatedAt:  c.Date,
		URL:        c.URL,
	}
}
