// Package stats partitions snapshot collections by member, repository and
// project and folds them into summary statistics. Every function is pure and
// treats missing optional fields as no contribution.
package stats

import (
	"sort"

	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/tasks"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
)

// MemberStats summarizes the issues assigned to member.
func MemberStats(member models.Member, issues []models.Issue) models.MemberStats {
	assigned := make([]models.Issue, 0)
	closed := 0
	for _, issue := range issues {
		if issue.AssigneeLogin() == "" || issue.AssigneeLogin() != member.Login {
			continue
		}
		assigned = append(assigned, issue)
		if issue.IsClosed() {
			closed++
		}
	}

	return models.MemberStats{
		Member:     member,
		IssueStats: models.NewTaskMetrics(len(assigned), closed),
		TaskStats:  tasks.ForIssues(assigned),
		Issues:     assigned,
	}
}

// CodeStats summarizes the pull requests and commits authored by member.
func CodeStats(member models.Member, pulls []models.PullRequest, commits []models.Commit) models.MemberCodeStats {
	out := models.MemberCodeStats{
		Commits:      make([]models.Commit, 0),
		PullRequests: make([]models.PullRequest, 0),
	}
	if member.Login == "" {
		return out
	}

	for _, pr := range pulls {
		if pr.AuthorLogin() != member.Login {
			continue
		}
		out.PullRequests = append(out.PullRequests, pr)
		out.TotalPRs++
		if pr.IsMerged() {
			out.MergedPRs++
		}
		out.LinesAdded += pr.Additions
		out.LinesDeleted += pr.Deletions
		out.FilesChanged += pr.ChangedFiles
	}

	days := make(map[string]struct{})
	for _, c := range commits {
		if c.AuthorLogin() != member.Login {
			continue
		}
		out.Commits = append(out.Commits, c)
		out.TotalCommits++
		if t, ok := utils.ParseDate(c.Date); ok {
			days[utils.DayKey(t)] = struct{}{}
		}
	}

	if len(days) > 0 {
		out.AverageCommitsPerDay = utils.Round2(float64(out.TotalCommits) / float64(len(days)))
	}
	if out.TotalPRs > 0 {
		out.AveragePRSize = utils.Round2(float64(out.LinesAdded+out.LinesDeleted) / float64(out.TotalPRs))
	}
	return out
}

// MemberDetailedStats computes issue and code statistics for every member.
func MemberDetailedStats(members []models.Member, issues []models.Issue, pulls []models.PullRequest, commits []models.Commit) []models.MemberDetailedStats {
	out := make([]models.MemberDetailedStats, 0, len(members))
	for _, m := range members {
		out = append(out, models.MemberDetailedStats{
			MemberStats: MemberStats(m, issues),
			CodeStats:   CodeStats(m, pulls, commits),
		})
	}
	return out
}

// Members returns the snapshot member list. When the snapshot carries no
// explicit members they are collected from assignees, authors and actors.
func Members(snap models.Snapshot) []models.Member {
	if len(snap.Members) > 0 {
		return snap.Members
	}

	seen := make(map[string]models.Member)
	add := func(m *models.Member) {
		if m == nil || m.Login == "" {
			return
		}
		if existing, ok := seen[m.Login]; !ok || existing.AvatarURL == "" {
			seen[m.Login] = *m
		}
	}
	for _, issue := range snap.Issues {
		add(issue.Assignee)
	}
	for _, pr := range snap.PullRequests {
		add(pr.User)
	}
	for _, c := range snap.Commits {
		add(c.Author)
	}
	for _, e := range snap.Events {
		add(e.Actor)
	}

	out := make([]models.Member, 0, len(seen))
	for _, m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out
}
