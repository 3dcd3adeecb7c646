package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Kamar-Folarin/team-insights/internal/models"
)

// WriteMarkdown writes the report as GitHub-flavored markdown to w.
func WriteMarkdown(w io.Writer, report models.Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# Team Insights Report\n\n")
	fmt.Fprintf(bw, "**Generated:** %s\n", formatTime(report.GeneratedAt))
	if !report.FetchedAt.IsZero() {
		fmt.Fprintf(bw, "**Data fetched:** %s\n", formatTime(report.FetchedAt))
	}
	fmt.Fprintln(bw)

	if report.Overall != nil {
		o := report.Overall
		fmt.Fprintf(bw, "## Summary\n\n")
		fmt.Fprintf(bw, "| Metric | Value |\n")
		fmt.Fprintf(bw, "|--------|-------|\n")
		fmt.Fprintf(bw, "| Issues closed | %d / %d (%.2f%%) |\n", o.Issues.Completed, o.Issues.Total, o.Issues.Percentage)
		fmt.Fprintf(bw, "| Tasks done | %d / %d (%.2f%%) |\n", o.Tasks.Completed, o.Tasks.Total, o.Tasks.Percentage)
		fmt.Fprintf(bw, "| Open | %d |\n", o.StatusDistribution.Open)
		fmt.Fprintf(bw, "| In progress | %d |\n", o.StatusDistribution.InProgress)
		fmt.Fprintf(bw, "| Closed | %d |\n\n", o.StatusDistribution.Closed)
	}

	fmt.Fprintf(bw, "## Members\n\n")
	fmt.Fprintf(bw, "| Member | Issues | Tasks | Commits | PRs | Merged | +Lines | -Lines |\n")
	fmt.Fprintf(bw, "|--------|-------:|------:|--------:|----:|-------:|-------:|-------:|\n")
	for _, m := range report.Members {
		fmt.Fprintf(bw, "| %s | %d/%d | %d/%d | %d | %d | %d | %d | %d |\n",
			cell(m.Member.Login),
			m.IssueStats.Completed, m.IssueStats.Total,
			m.TaskStats.Completed, m.TaskStats.Total,
			m.CodeStats.TotalCommits, m.CodeStats.TotalPRs, m.CodeStats.MergedPRs,
			m.CodeStats.LinesAdded, m.CodeStats.LinesDeleted)
	}
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, "## Repositories\n\n")
	writeScheduleHeader(bw, "Repository")
	for _, r := range report.Repositories {
		writeScheduleRow(bw, r.Repository, r.Schedule)
	}
	fmt.Fprintln(bw)

	if len(report.Projects) > 0 {
		fmt.Fprintf(bw, "## Projects\n\n")
		writeScheduleHeader(bw, "Project")
		for _, p := range report.Projects {
			writeScheduleRow(bw, fmt.Sprintf("#%d %s", p.Project.Number, p.Project.Title), p.Schedule)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

func writeScheduleHeader(w io.Writer, label string) {
	fmt.Fprintf(w, "| %s | Issues | Done | Progress | Planned | Actual | Overdue | Top contributor |\n", label)
	fmt.Fprintf(w, "|%s|-------:|-----:|---------:|---------|--------|---------|-----------------|\n", strings.Repeat("-", len(label)+2))
}

func writeScheduleRow(w io.Writer, name string, s models.Schedule) {
	top := "-"
	if len(s.Members) > 0 {
		top = s.Members[0].Login
	}
	overdue := "no"
	if s.IsOverdue {
		overdue = "yes"
	}
	fmt.Fprintf(w, "| %s | %d | %d | %.2f%% | %s | %s | %s | %s |\n",
		cell(name), s.TotalIssues, s.CompletedIssues, s.Progress,
		s.PlannedDuration, s.ActualDuration, overdue, cell(top))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// cell escapes pipes so values cannot break the table.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
