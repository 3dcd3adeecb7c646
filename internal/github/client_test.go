package github

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/team-insights/internal/models"
)

func setupTestClient(t *testing.T, handler http.HandlerFunc) *GitHubClient {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewGitHubClient(
		"test-token",
		logger,
		WithBaseURL(server.URL),
		WithRetryConfig(3, time.Millisecond*10, time.Second),
	)
	// Override client's HTTP client to use test server
	client.client = server.Client()
	return client
}

func TestGitHubClient_GetRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("successful request", func(t *testing.T) {
		client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/repos/test-owner/test-repo", r.URL.Path)

			w.Header().Set("X-RateLimit-Limit", "5000")
			w.Header().Set("X-RateLimit-Remaining", "4999")
			w.Header().Set("X-RateLimit-Reset", "1234567890")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"name": "test-repo",
				"full_name": "test-owner/test-repo",
				"description": "Test repository",
				"html_url": "https://github.com/test-owner/test-repo"
			}`))
		})

		repo, err := client.GetRepository(ctx, "test-owner", "test-repo")
		require.NoError(t, err)
		assert.Equal(t, "test-repo", repo.Name)
		assert.Equal(t, "test-owner/test-repo", repo.FullName)
		assert.Equal(t, "Test repository", repo.Description)
		assert.Equal(t, "https://github.com/test-owner/test-repo", repo.URL)
		assert.Equal(t, 4999, client.RateLimit().Remaining)
		assert.Equal(t, 5000, client.RateLimit().Limit)
	})

	t.Run("rate limit handling", func(t *testing.T) {
		client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "5000")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "1234567890")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.GetRepository(ctx, "test-owner", "test-repo")
		assert.Error(t, err)
		assert.True(t, IsRateLimitError(err))
	})

	t.Run("secondary rate limit", func(t *testing.T) {
		client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.GetRepository(ctx, "test-owner", "test-repo")
		assert.Error(t, err)
		assert.True(t, IsRateLimitError(err))
	})

	t.Run("validation error", func(t *testing.T) {
		client := setupTestClient(t, nil)

		_, err := client.GetRepository(ctx, "", "test-repo")
		assert.Error(t, err)
		assert.IsType(t, &ValidationError{}, err)

		_, err = client.GetRepository(ctx, "test-owner", "")
		assert.Error(t, err)
		assert.IsType(t, &ValidationError{}, err)
	})

	t.Run("repository not found", func(t *testing.T) {
		client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.GetRepository(ctx, "test-owner", "test-repo")
		assert.Error(t, err)
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("server error retried", func(t *testing.T) {
		calls := 0
		client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"name": "test-repo"}`))
		})

		repo, err := client.GetRepository(ctx, "test-owner", "test-repo")
		require.NoError(t, err)
		assert.Equal(t, "test-repo", repo.Name)
		assert.Equal(t, 3, calls)
	})

	t.Run("server error exhausts retries", func(t *testing.T) {
		client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.GetRepository(ctx, "test-owner", "test-repo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries exceeded")
		assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	})
}

func TestGitHubClient_ListIssues(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/issues", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		w.Write([]byte(`[
			{
				"number": 1,
				"title": "Build login",
				"body": "Start: 2024-03-01\n**Due date**: 2024-03-20\n- [x] form\n- [ ] api",
				"state": "open",
				"assignee": {"login": "alice", "avatar_url": "https://avatars/alice"},
				"labels": [{"name": "feature"}],
				"comments": 2,
				"created_at": "2024-03-01T09:00:00Z",
				"closed_at": null,
				"html_url": "https://github.com/acme/widgets/issues/1"
			},
			{
				"number": 2,
				"title": "A pull request",
				"state": "open",
				"pull_request": {"url": "https://api.github.com/repos/acme/widgets/pulls/2"}
			},
			{
				"number": 3,
				"title": "Milestone dated",
				"body": null,
				"state": "closed",
				"milestone": {"due_on": "2024-04-01T07:00:00Z"},
				"closed_at": "2024-03-15T10:00:00Z"
			}
		]`))
	})

	issues, err := client.ListIssues(context.Background(), "acme", "widgets", 0)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	first := issues[0]
	assert.Equal(t, 2, first.CommentCount)
	assert.Equal(t, 1, first.Issue.Number)
	assert.Equal(t, "widgets", first.Issue.Repository.Name)
	assert.Equal(t, "alice", first.Issue.AssigneeLogin())
	assert.Equal(t, []string{"feature"}, first.Issue.Labels)
	assert.Equal(t, "2024-03-01", first.Issue.StartDate)
	assert.Equal(t, "2024-03-20", first.Issue.DueDate)
	assert.Empty(t, first.Issue.ClosedAt)

	third := issues[1]
	assert.Equal(t, 3, third.Issue.Number)
	assert.Equal(t, "2024-04-01T07:00:00Z", third.Issue.DueDate)
	assert.True(t, third.Issue.IsClosed())
	assert.Nil(t, third.Issue.Assignee)
}

func TestGitHubClient_Pagination(t *testing.T) {
	var pages []string
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		count := perPage
		if page == "2" {
			count = 5
		}
		w.Write([]byte("["))
		for i := 0; i < count; i++ {
			if i > 0 {
				w.Write([]byte(","))
			}
			fmt.Fprintf(w, `{"login": "user-%s-%d"}`, page, i)
		}
		w.Write([]byte("]"))
	})

	t.Run("reads until a short page", func(t *testing.T) {
		pages = nil
		members, err := client.ListOrgMembers(context.Background(), "acme")
		require.NoError(t, err)
		assert.Len(t, members, perPage+5)
		assert.Equal(t, []string{"1", "2"}, pages)
	})

	t.Run("stops at the limit", func(t *testing.T) {
		pages = nil
		pulls, err := client.ListPullRequests(context.Background(), "acme", "widgets", 30)
		require.NoError(t, err)
		assert.Len(t, pulls, 30)
		assert.Equal(t, []string{"1"}, pages)
	})
}

func TestGitHubClient_PullRequestsAndCommits(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widgets/pulls/7":
			w.Write([]byte(`{
				"number": 7,
				"title": "Add login",
				"state": "closed",
				"user": {"login": "bob"},
				"merged_at": "2024-03-10T12:00:00Z",
				"additions": 120,
				"deletions": 30,
				"changed_files": 4,
				"created_at": "2024-03-08T12:00:00Z"
			}`))
		case "/repos/acme/widgets/commits":
			assert.Equal(t, "2024-03-01T00:00:00Z", r.URL.Query().Get("since"))
			w.Write([]byte(`[{
				"sha": "abc123",
				"commit": {"message": "Fix build\n\nDetails", "author": {"name": "Bob", "date": "2024-03-09T08:00:00Z"}},
				"author": {"login": "bob"},
				"html_url": "https://github.com/acme/widgets/commit/abc123"
			}, {
				"sha": "def456",
				"commit": {"message": "Unlinked author", "author": {"name": "Ghost", "date": "2024-03-09T09:00:00Z"}},
				"author": null
			}]`))
		case "/repos/acme/empty/commits":
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message": "Git Repository is empty."}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	pr, err := client.GetPullRequest(ctx, "acme", "widgets", 7)
	require.NoError(t, err)
	assert.True(t, pr.IsMerged())
	assert.Equal(t, "bob", pr.AuthorLogin())
	assert.Equal(t, 120, pr.Additions)
	assert.Equal(t, 30, pr.Deletions)
	assert.Equal(t, 4, pr.ChangedFiles)

	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	commits, err := client.ListCommits(ctx, "acme", "widgets", &since, 0)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "bob", commits[0].AuthorLogin())
	assert.Equal(t, "2024-03-09T08:00:00Z", commits[0].Date)
	assert.Equal(t, "", commits[1].AuthorLogin())

	empty, err := client.ListCommits(ctx, "acme", "empty", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGitHubClient_ListEvents(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/events", r.URL.Path)
		w.Write([]byte(`[
			{"id": "1", "type": "PushEvent", "actor": {"login": "alice"}, "repo": {"name": "acme/widgets"},
			 "created_at": "2024-03-10T10:00:00Z",
			 "payload": {"ref": "refs/heads/main", "size": 2, "commits": [{"message": "one"}, {"message": "two"}]}},
			{"id": "2", "type": "IssueCommentEvent", "actor": {"login": "bob"}, "repo": {"name": "acme/widgets"},
			 "created_at": "2024-03-10T11:00:00Z",
			 "payload": {"issue": {"title": "Bug", "pull_request": {"url": "x"}}, "comment": {"body": "LGTM", "html_url": "https://c/2"}}},
			{"id": "3", "type": "IssueCommentEvent", "actor": {"login": "carol"}, "repo": {"name": "acme/widgets"},
			 "created_at": "2024-03-10T12:00:00Z",
			 "payload": {"issue": {"title": "Bug"}, "comment": {"body": "Repro?"}}},
			{"id": "4", "type": "PullRequestEvent", "actor": {"login": "dave"}, "repo": {"name": "acme/widgets"},
			 "created_at": "2024-03-10T13:00:00Z",
			 "payload": {"action": "opened", "pull_request": {"title": "Add login", "html_url": "https://p/4"}}},
			{"id": "5", "type": "WatchEvent", "actor": {"login": "erin"}, "repo": {"name": "acme/widgets"},
			 "created_at": "2024-03-10T14:00:00Z", "payload": {}}
		]`))
	})

	events, err := client.ListEvents(context.Background(), "acme", "widgets", 0)
	require.NoError(t, err)
	require.Len(t, events, 5)

	assert.Equal(t, models.EventPush, events[0].Type)
	assert.Equal(t, "Pushed 2 commit(s) to main", events[0].Title)
	assert.Equal(t, "two", events[0].Content)

	assert.Equal(t, models.EventPRComment, events[1].Type)
	assert.Equal(t, "LGTM", events[1].Content)
	assert.Equal(t, models.EventIssueComment, events[2].Type)
	assert.Equal(t, "carol", events[2].ActorLogin())

	assert.Equal(t, models.EventPullRequest, events[3].Type)
	assert.Equal(t, "Add login", events[3].Title)
	assert.Equal(t, "opened", events[3].Content)

	assert.Equal(t, models.EventType("WatchEvent"), events[4].Type)
	assert.Equal(t, "widgets", events[4].Repository.Name)
}

func TestCommitEvent(t *testing.T) {
	e := commitEvent(models.Commit{
		SHA:        "abc",
		Message:    "Fix build\n\nLonger text",
		Repository: models.RepositoryRef{Name: "widgets"},
		Author:     &models.Member{Login: "bob"},
		Date:       "2024-03-09T08:00:00Z",
	})
	assert.Equal(t, models.EventCommit, e.Type)
	assert.Equal(t, "Fix build", e.Title)
	assert.Equal(t, "bob", e.ActorLogin())
	assert.Equal(t, "2024-03-09T08:00:00Z", e.CreatedAt)
}
