package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Kamar-Folarin/team-insights/internal/config"
	"github.com/Kamar-Folarin/team-insights/internal/errors"
	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
)

// Collector gathers a full team snapshot from GitHub.
type Collector struct {
	client Client
	config *config.SyncConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewCollector creates a collector reading through client.
func NewCollector(client Client, cfg *config.SyncConfig, logger *logrus.Logger) *Collector {
	if cfg == nil {
		cfg = config.DefaultSyncConfig()
	}
	return &Collector{
		client: client,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

type repoData struct {
	issues  []models.Issue
	pulls   []models.PullRequest
	commits []models.Commit
	events  []models.TimelineEvent
}

// Collect fetches repositories, members and per-repository activity. With an
// explicit repository list the org is only used for members and as the
// default owner of bare repository names.
func (c *Collector) Collect(ctx context.Context, org string, repos []string) (*models.Snapshot, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"org":          org,
		"repositories": len(repos),
	})
	logger.Info("Collecting snapshot from GitHub")

	repositories, err := c.resolveRepositories(ctx, org, repos)
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{Repositories: repositories}
	if org != "" {
		members, err := c.client.ListOrgMembers(ctx, org)
		if err != nil {
			if IsRateLimitError(err) || ctx.Err() != nil {
				return nil, err
			}
			// Personal accounts have no member listing; stats fall back to
			// the people seen in activity.
			logger.WithError(err).Warn("Failed to list organization members")
		}
		snap.Members = members
	}

	results := make([]repoData, len(repositories))
	workers := c.config.BatchConfig.Workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, repo := range repositories {
		i, repo := i, repo
		g.Go(func() error {
			owner := ownerOf(repo, org)
			data, err := c.collectRepository(gctx, owner, repo.Name)
			if err != nil {
				return fmt.Errorf("failed to collect %s/%s: %w", owner, repo.Name, err)
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Snapshot collection failed")
		return nil, err
	}

	for _, data := range results {
		snap.Issues = append(snap.Issues, data.issues...)
		snap.PullRequests = append(snap.PullRequests, data.pulls...)
		snap.Commits = append(snap.Commits, data.commits...)
		snap.Events = append(snap.Events, data.events...)
	}
	snap.FetchedAt = c.now().UTC()

	logger.WithFields(logrus.Fields{
		"issues":        len(snap.Issues),
		"pull_requests": len(snap.PullRequests),
		"commits":       len(snap.Commits),
		"events":        len(snap.Events),
	}).Info("Snapshot collected")
	return snap, nil
}

func (c *Collector) resolveRepositories(ctx context.Context, org string, repos []string) ([]models.Repository, error) {
	if len(repos) == 0 {
		if org == "" {
			return nil, errors.NewValidationError("either an organization or a repository list is required", nil)
		}
		return c.client.ListOrgRepositories(ctx, org)
	}

	result := make([]models.Repository, 0, len(repos))
	for _, ref := range repos {
		owner, name, err := splitRepoRef(ref, org)
		if err != nil {
			return nil, errors.NewValidationError(err.Error(), err)
		}
		repo, err := c.client.GetRepository(ctx, owner, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get repository %s/%s: %w", owner, name, err)
		}
		if repo.FullName == "" {
			repo.FullName = owner + "/" + name
		}
		result = append(result, *repo)
	}
	return result, nil
}

func (c *Collector) collectRepository(ctx context.Context, owner, name string) (repoData, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"owner": owner,
		"repo":  name,
	})
	var data repoData

	summaries, err := c.client.ListIssues(ctx, owner, name, c.config.MaxIssues)
	if err != nil {
		return data, fmt.Errorf("failed to list issues: %w", err)
	}
	for _, s := range summaries {
		issue := s.Issue
		if c.config.FetchIssueComments && s.CommentCount > 0 {
			comments, err := c.client.ListIssueComments(ctx, owner, name, issue.Number)
			if err != nil {
				if fatal(ctx, err) {
					return data, err
				}
				logger.WithError(err).WithField("issue", issue.Number).Warn("Failed to list issue comments")
			}
			issue.Comments = comments
		}
		data.issues = append(data.issues, issue)
	}

	pulls, err := c.client.ListPullRequests(ctx, owner, name, c.config.MaxPullRequests)
	if err != nil {
		return data, fmt.Errorf("failed to list pull requests: %w", err)
	}
	for i := range pulls {
		if i >= c.config.MaxPullDetails {
			break
		}
		detail, err := c.client.GetPullRequest(ctx, owner, name, pulls[i].Number)
		if err != nil {
			if fatal(ctx, err) {
				return data, err
			}
			logger.WithError(err).WithField("pull_request", pulls[i].Number).Warn("Failed to get pull request details")
			continue
		}
		pulls[i] = *detail
	}
	data.pulls = pulls

	commits, err := c.client.ListCommits(ctx, owner, name, nil, c.config.MaxCommits)
	if err != nil {
		return data, fmt.Errorf("failed to list commits: %w", err)
	}
	data.commits = commits

	events, err := c.client.ListEvents(ctx, owner, name, c.config.MaxEvents)
	if err != nil {
		if fatal(ctx, err) {
			return data, err
		}
		logger.WithError(err).Warn("Failed to list repository events")
	}
	for _, commit := range commits {
		events = append(events, commitEvent(commit))
	}
	data.events = events

	logger.WithFields(logrus.Fields{
		"issues":        len(data.issues),
		"pull_requests": len(data.pulls),
		"commits":       len(data.commits),
		"events":        len(data.events),
	}).Debug("Repository collected")
	return data, nil
}

// fatal reports errors that should abort collection rather than be skipped.
func fatal(ctx context.Context, err error) bool {
	return IsRateLimitError(err) || ctx.Err() != nil
}

func ownerOf(repo models.Repository, org string) string {
	if owner, _, ok := strings.Cut(repo.FullName, "/"); ok && owner != "" {
		return owner
	}
	return org
}

func splitRepoRef(ref, org string) (string, string, error) {
	ref = strings.TrimSpace(ref)
	if !strings.Contains(ref, "/") {
		if org == "" {
			return "", "", fmt.Errorf("repository %q has no owner and no organization is configured", ref)
		}
		return org, ref, nil
	}
	return utils.ParseRepoURL(ref)
}

// collectedCounts summarizes a snapshot for sync status reporting.
func collectedCounts(snap *models.Snapshot) map[string]int {
	counts := make(map[string]int, len(models.SnapshotKinds))
	for _, kind := range models.SnapshotKinds {
		counts[string(kind)] = len(snap.Records(kind))
	}
	return counts
}

