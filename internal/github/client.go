package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/Kamar-Folarin/team-insights/internal/models"
)

const (
	defaultBaseURL = "https://api.github.com"
	perPage        = 100
)

// RateLimitInfo holds information about GitHub API rate limits
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetTime time.Time
	// Set from Retry-After on secondary rate limits
	SecondaryLimitReset time.Time
}

// GitHubClient represents a client for interacting with the GitHub API
type GitHubClient struct {
	client  *http.Client
	baseURL string
	logger  *logrus.Logger

	mu            sync.Mutex
	rateLimitInfo RateLimitInfo

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// ClientOption allows configuring the GitHub client
type ClientOption func(*GitHubClient)

// WithRetryConfig configures retry behavior
func WithRetryConfig(maxRetries int, initialBackoff, maxBackoff time.Duration) ClientOption {
	return func(c *GitHubClient) {
		c.maxRetries = maxRetries
		c.initialBackoff = initialBackoff
		c.maxBackoff = maxBackoff
	}
}

// WithBaseURL points the client at a different API root, e.g. GitHub Enterprise.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *GitHubClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// NewGitHubClient creates a new GitHub client with the given token and options.
// An empty token yields an unauthenticated client.
func NewGitHubClient(token string, logger *logrus.Logger, opts ...ClientOption) *GitHubClient {
	httpClient := &http.Client{}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = 120 * time.Second

	client := &GitHubClient{
		client:         httpClient,
		baseURL:        defaultBaseURL,
		logger:         logger,
		maxRetries:     3,
		initialBackoff: time.Second,
		maxBackoff:     time.Minute,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// RateLimit returns the last rate limit headers seen.
func (c *GitHubClient) RateLimit() RateLimitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimitInfo
}

// updateRateLimitInfo updates the rate limit information from response headers
func (c *GitHubClient) updateRateLimitInfo(resp *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "" {
		c.rateLimitInfo.Limit, _ = strconv.Atoi(limit)
	}
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		c.rateLimitInfo.Remaining, _ = strconv.Atoi(remaining)
	}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if resetTime, err := strconv.ParseInt(reset, 10, 64); err == nil {
			c.rateLimitInfo.ResetTime = time.Unix(resetTime, 0)
		}
	}
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if retrySeconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
			c.rateLimitInfo.SecondaryLimitReset = time.Now().Add(time.Duration(retrySeconds) * time.Second)
		}
	}
}

// rateLimitWait returns how long to hold off before the next request.
func (c *GitHubClient) rateLimitWait() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	var wait time.Duration
	info := c.rateLimitInfo
	// Buffer of 5 requests
	if info.Limit > 0 && info.Remaining <= 5 {
		wait = time.Until(info.ResetTime)
	}
	if w := time.Until(info.SecondaryLimitReset); w > wait {
		wait = w
	}
	return wait
}

// checkRateLimit waits out a nearly exhausted quota. Waits longer than
// maxBackoff fail fast with a RateLimitError instead.
func (c *GitHubClient) checkRateLimit(ctx context.Context) error {
	wait := c.rateLimitWait()
	if wait <= 0 {
		return nil
	}
	if wait > c.maxBackoff {
		info := c.RateLimit()
		return NewRateLimitError(info.ResetTime, info.Limit, info.Remaining)
	}
	c.logger.Warnf("Rate limit nearly exceeded. Waiting %v before next request", wait)
	return sleep(ctx, wait)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *GitHubClient) nextBackoff(backoff time.Duration) time.Duration {
	return time.Duration(math.Min(float64(backoff*2), float64(c.maxBackoff)))
}

// doRequestWithBackoff performs an HTTP request with exponential backoff
func (c *GitHubClient) doRequestWithBackoff(req *http.Request, result interface{}) error {
	ctx := req.Context()
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.checkRateLimit(ctx); err != nil {
			return err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = NewGitHubError(0, "request failed", err)
			c.logger.Warnf("Request attempt %d failed: %v", attempt+1, err)
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = c.nextBackoff(backoff)
			continue
		}

		c.updateRateLimitInfo(resp)

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests ||
			(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0") {
			info := c.RateLimit()
			lastErr = NewRateLimitError(info.ResetTime, info.Limit, info.Remaining)
			c.logger.Warnf("Rate limit exceeded on attempt %d", attempt+1)
			continue
		}

		if err != nil {
			lastErr = NewGitHubError(resp.StatusCode, "failed to read response body", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = NewGitHubError(resp.StatusCode, string(body), nil)
			if resp.StatusCode >= 500 {
				if err := sleep(ctx, backoff); err != nil {
					return err
				}
				backoff = c.nextBackoff(backoff)
				continue
			}
			return lastErr
		}

		if result != nil {
			if err := json.Unmarshal(body, result); err != nil {
				return NewGitHubError(resp.StatusCode, "failed to decode response", err)
			}
		}

		return nil
	}

	if IsRateLimitError(lastErr) {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *GitHubClient) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	return c.doRequestWithBackoff(req, result)
}

// listPages walks page-numbered listings until a short page or until limit
// items are collected. A limit of zero means no limit.
func listPages[T any](ctx context.Context, c *GitHubClient, path string, query url.Values, limit int) ([]T, error) {
	var out []T
	for page := 1; ; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))

		var items []T
		if err := c.get(ctx, path, q, &items); err != nil {
			return nil, err
		}
		out = append(out, items...)

		if len(items) < perPage || (limit > 0 && len(out) >= limit) {
			break
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func validateRepo(owner, name string) error {
	if owner == "" {
		return NewValidationError("owner", "cannot be empty")
	}
	if name == "" {
		return NewValidationError("name", "cannot be empty")
	}
	return nil
}

// GetRepository gets repository information from GitHub
func (c *GitHubClient) GetRepository(ctx context.Context, owner, name string) (*models.Repository, error) {
	if err := validateRepo(owner, name); err != nil {
		return nil, err
	}

	var repo repoPayload
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, name), nil, &repo); err != nil {
		return nil, err
	}
	r := repo.repository()
	return &r, nil
}

// ListOrgRepositories lists every repository of an organization.
func (c *GitHubClient) ListOrgRepositories(ctx context.Context, org string) ([]models.Repository, error) {
	if org == "" {
		return nil, NewValidationError("org", "cannot be empty")
	}
	repos, err := listPages[repoPayload](ctx, c, fmt.Sprintf("/orgs/%s/repos", org), url.Values{"type": {"all"}}, 0)
	if err != nil {
		return nil, err
	}
	result := make([]models.Repository, 0, len(repos))
	for _, r := range repos {
		result = append(result, r.repository())
	}
	return result, nil
}

// ListOrgMembers lists the members of an organization.
func (c *GitHubClient) ListOrgMembers(ctx context.Context, org string) ([]models.Member, error) {
	if org == "" {
		return nil, NewValidationError("org", "cannot be empty")
	}
	users, err := listPages[userPayload](ctx, c, fmt.Sprintf("/orgs/%s/members", org), nil, 0)
	if err != nil {
		return nil, err
	}
	result := make([]models.Member, 0, len(users))
	for _, u := range users {
		result = append(result, models.Member{Login: u.Login, AvatarURL: u.AvatarURL})
	}
	return result, nil
}

// IssueSummary is an issue together with the number of comments GitHub
// reports for it.
type IssueSummary struct {
	Issue        models.Issue
	CommentCount int
}

// ListIssues lists issues in every state. Pull requests, which GitHub also
// returns from the issues endpoint, are skipped.
func (c *GitHubClient) ListIssues(ctx context.Context, owner, name string, limit int) ([]IssueSummary, error) {
	if err := validateRepo(owner, name); err != nil {
		return nil, err
	}
	issues, err := listPages[issuePayload](ctx, c, fmt.Sprintf("/repos/%s/%s/issues", owner, name), url.Values{"state": {"all"}}, limit)
	if err != nil {
		return nil, err
	}
	var result []IssueSummary
	for _, p := range issues {
		if p.isPullRequest() {
			continue
		}
		result = append(result, IssueSummary{Issue: p.issue(name), CommentCount: p.Comments})
	}
	return result, nil
}

// ListIssueComments lists the comments on one issue.
func (c *GitHubClient) ListIssueComments(ctx context.Context, owner, name string, number int) ([]models.Comment, error) {
	if err := validateRepo(owner, name); err != nil {
		return nil, err
	}
	comments, err := listPages[commentPayload](ctx, c, fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, name, number), nil, 0)
	if err != nil {
		return nil, err
	}
	result := make([]models.Comment, 0, len(comments))
	for _, p := range comments {
		result = append(result, models.Comment{User: p.User.member(), Body: p.Body, CreatedAt: p.CreatedAt})
	}
	return result, nil
}

// ListPullRequests lists pull requests in every state. The listing endpoint
// omits line counts; use GetPullRequest for those.
func (c *GitHubClient) ListPullRequests(ctx context.Context, owner, name string, limit int) ([]models.PullRequest, error) {
	if err := validateRepo(owner, name); err != nil {
		return nil, err
	}
	pulls, err := listPages[pullPayload](ctx, c, fmt.Sprintf("/repos/%s/%s/pulls", owner, name), url.Values{"state": {"all"}}, limit)
	if err != nil {
		return nil, err
	}
	result := make([]models.PullRequest, 0, len(pulls))
	for _, p := range pulls {
		result = append(result, p.pullRequest(name))
	}
	return result, nil
}

// GetPullRequest fetches one pull request including additions, deletions
// and changed files.
func (c *GitHubClient) GetPullRequest(ctx context.Context, owner, name string, number int) (*models.PullRequest, error) {
	if err := validateRepo(owner, name); err != nil {
		return nil, err
	}
	var p pullPayload
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, name, number), nil, &p); err != nil {
		return nil, err
	}
	pr := p.pullRequest(name)
	return &pr, nil
}

// ListCommits lists commits on the default branch, newest first.
func (c *GitHubClient) ListCommits(ctx context.Context, owner, name string, since *time.Time, limit int) ([]models.Commit, error) {
	if err := validateRepo(owner, name); err != nil {
		return nil, err
	}
	query := url.Values{}
	if since != nil {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}
	commits, err := listPages[commitPayload](ctx, c, fmt.Sprintf("/repos/%s/%s/commits", owner, name), query, limit)
	if err != nil {
		// GitHub answers 409 for an empty repository
		if StatusCode(err) == http.StatusConflict {
			return nil, nil
		}
		return nil, err
	}
	result := make([]models.Commit, 0, len(commits))
	for _, p := range commits {
		result = append(result, p.commit(name))
	}
	return result, nil
}

// ListEvents lists recent repository events. GitHub keeps at most 300.
func (c *GitHubClient) ListEvents(ctx context.Context, owner, name string, limit int) ([]models.TimelineEvent, error) {
	if err := validateRepo(owner, name); err != nil {
		return nil, err
	}
	events, err := listPages[eventPayload](ctx, c, fmt.Sprintf("/repos/%s/%s/events", owner, name), nil, limit)
	if err != nil {
		return nil, err
	}
	result := make([]models.TimelineEvent, 0, len(events))
	for _, p := range events {
		result = append(result, p.timelineEvent(name))
	}
	return result, nil
}
