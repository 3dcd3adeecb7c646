package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
)

// Activity kinds derived from issues rather than timeline events.
const (
	ActivityAssignment   = "assignment"
	ActivityIssueComment = "comment"
)

// Contribution weights.
const (
	WeightAssignment   = 1.0
	WeightIssueComment = 0.5
	WeightCommit       = 1.0
	WeightPullRequest  = 2.0
	WeightComment      = 0.5
	WeightPush         = 1.0
	WeightDefault      = 1.0
)

const (
	hoursPerDay      = 8
	busyDayHours     = 8
	singleEventHours = 4
)

// EventWeight returns the contribution weight of a timeline event kind.
func EventWeight(kind models.EventType) float64 {
	switch kind {
	case models.EventCommit:
		return WeightCommit
	case models.EventPullRequest:
		return WeightPullRequest
	case models.EventIssueComment, models.EventPRComment:
		return WeightComment
	case models.EventPush:
		return WeightPush
	}
	return WeightDefault
}

// contributors accumulates one record per login.
type contributors struct {
	byLogin map[string]*models.Contributor
	order   []string
}

func newContributors() *contributors {
	return &contributors{byLogin: make(map[string]*models.Contributor)}
}

func (c *contributors) get(member *models.Member) *models.Contributor {
	if member == nil || member.Login == "" {
		return nil
	}
	rec, ok := c.byLogin[member.Login]
	if !ok {
		rec = &models.Contributor{
			Login:      member.Login,
			AvatarURL:  member.AvatarURL,
			Activities: make([]models.Activity, 0),
		}
		c.byLogin[member.Login] = rec
		c.order = append(c.order, member.Login)
	}
	if rec.AvatarURL == "" {
		rec.AvatarURL = member.AvatarURL
	}
	return rec
}

// add folds one activity into the contributor of member. The score always
// counts, the activity itself only when its timestamp parses.
func (c *contributors) add(member *models.Member, weight float64, kind, title, repo, timestamp, url string) {
	rec := c.get(member)
	if rec == nil {
		return
	}
	rec.Contributions += weight

	t, ok := utils.ParseDate(timestamp)
	if !ok {
		return
	}
	rec.FirstContribution = utils.Earliest(rec.FirstContribution, t)
	rec.LastContribution = utils.Latest(rec.LastContribution, t)
	rec.Activities = append(rec.Activities, models.Activity{
		Type:       kind,
		Title:      title,
		Repository: repo,
		Date:       t,
		URL:        url,
	})
}

// merge folds an already built contributor record into c.
func (c *contributors) merge(other models.Contributor) {
	rec := c.get(&models.Member{Login: other.Login, AvatarURL: other.AvatarURL})
	if rec == nil {
		return
	}
	rec.Contributions += other.Contributions
	if other.FirstContribution != nil {
		rec.FirstContribution = utils.Earliest(rec.FirstContribution, *other.FirstContribution)
	}
	if other.LastContribution != nil {
		rec.LastContribution = utils.Latest(rec.LastContribution, *other.LastContribution)
	}
	rec.Activities = append(rec.Activities, other.Activities...)
}

// addIssues seeds contributors from issue assignment and issue comments.
func (c *contributors) addIssues(issues []models.Issue) {
	for _, issue := range issues {
		repo := issue.Repository.Name
		c.add(issue.Assignee, WeightAssignment, ActivityAssignment, issue.Title, repo, issue.CreatedAt, issue.URL)
		for _, comment := range issue.Comments {
			c.add(comment.User, WeightIssueComment, ActivityIssueComment, issue.Title, repo, comment.CreatedAt, issue.URL)
		}
	}
}

// addEvents seeds contributors from repository timeline events.
func (c *contributors) addEvents(events []models.TimelineEvent) {
	for _, e := range events {
		c.add(e.Actor, EventWeight(e.Type), string(e.Type), e.Title, e.Repository.Name, e.CreatedAt, e.URL)
	}
}

// list finalizes the records: activities newest first, time spent estimated
// and contributors ordered by score with login as tie-break.
func (c *contributors) list() []models.Contributor {
	out := make([]models.Contributor, 0, len(c.order))
	for _, login := range c.order {
		rec := *c.byLogin[login]
		sort.SliceStable(rec.Activities, func(i, j int) bool {
			return rec.Activities[i].Date.After(rec.Activities[j].Date)
		})
		rec.TotalHours, rec.TotalDays = TimeSpent(rec.Activities)
		rec.TotalTimeSpent = FormatDays(rec.TotalDays)
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Contributions != out[j].Contributions {
			return out[i].Contributions > out[j].Contributions
		}
		return out[i].Login < out[j].Login
	})
	return out
}

// TimeSpent estimates hours and days from activity timestamps. A UTC day with
// more than one activity counts as a full day, a day with a single activity
// as half a day. The result is a heuristic, not tracked time.
func TimeSpent(activities []models.Activity) (hours, days int) {
	perDay := make(map[string]int)
	for _, a := range activities {
		perDay[utils.DayKey(a.Date)]++
	}
	for _, n := range perDay {
		if n > 1 {
			hours += busyDayHours
		} else {
			hours += singleEventHours
		}
	}
	days = int(math.Ceil(float64(hours) / hoursPerDay))
	return hours, days
}

// FormatDays renders a day count label.
func FormatDays(days int) string {
	return fmt.Sprintf("%d days", days)
}

// Contributors builds the merged contributor records of one scope from its
// issues and its timeline events.
func Contributors(issues []models.Issue, events []models.TimelineEvent) []models.Contributor {
	c := newContributors()
	c.addIssues(issues)
	c.addEvents(events)
	return c.list()
}

// MergeContributors merges contributor records by login.
func MergeContributors(groups ...[]models.Contributor) []models.Contributor {
	c := newContributors()
	for _, group := range groups {
		for _, rec := range group {
			c.merge(rec)
		}
	}
	return c.list()
}

// RecentActivities returns the newest limit events, newest first. Events
// without a valid timestamp sort last.
func RecentActivities(events []models.TimelineEvent, limit int) []models.RecentActivity {
	out := make([]models.RecentActivity, 0, len(events))
	for _, e := range events {
		ra := models.RecentActivity{
			Type:       e.Type,
			Title:      e.Title,
			Content:    e.Content,
			Repository: e.Repository.Name,
			Date:       utils.ParseDatePtr(e.CreatedAt),
			URL:        e.URL,
		}
		if e.Actor != nil {
			ra.Author = *e.Actor
		}
		out = append(out, ra)
	}
	return newestFirst(out, limit)
}

func newestFirst(items []models.RecentActivity, limit int) []models.RecentActivity {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Date, items[j].Date
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
