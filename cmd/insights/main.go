package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kamar-Folarin/team-insights/internal/config"
	"github.com/Kamar-Folarin/team-insights/internal/dashboard"
	"github.com/Kamar-Folarin/team-insights/internal/github"
	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/output"
)

func main() {
	root := &cobra.Command{
		Use:          "insights",
		Short:        "Collect GitHub team activity and render progress reports",
		SilenceUsage: true,
	}

	root.AddCommand(newFetchCmd())
	root.AddCommand(newReportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Collect a snapshot from GitHub and write it as JSON",
		RunE:  runFetch,
	}
	cmd.Flags().String("org", "", "Organization to collect (defaults to GITHUB_ORG)")
	cmd.Flags().StringSlice("repo", nil, "Repository to collect, as name, owner/name or URL (repeatable)")
	cmd.Flags().String("out", "", "Write the snapshot to this file instead of stdout")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	org, _ := cmd.Flags().GetString("org")
	repos, _ := cmd.Flags().GetStringSlice("repo")
	outPath, _ := cmd.Flags().GetString("out")
	if org == "" {
		org = cfg.GitHubOrg
	}
	if len(repos) == 0 {
		repos = cfg.Repositories
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	client := github.NewGitHubClient(cfg.GitHubToken, logger,
		github.WithBaseURL(cfg.GitHub.APIBaseURL),
		github.WithRetryConfig(
			cfg.GitHub.RateLimit.MaxRetries,
			cfg.GitHub.RateLimit.InitialBackoff,
			cfg.GitHub.RateLimit.MaxBackoff,
		),
	)
	collector := github.NewCollector(client, cfg.Sync, logger)

	snap, err := collector.Collect(cmd.Context(), org, repos)
	if err != nil {
		return fmt.Errorf("collect snapshot: %w", err)
	}

	w, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer w.Close()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a progress report from a snapshot file",
		RunE:  runReport,
	}
	cmd.Flags().String("snapshot", "", "Snapshot JSON produced by fetch")
	cmd.Flags().String("format", "markdown", "Output format (json, markdown)")
	cmd.Flags().String("now", "", "Evaluate the report at this RFC3339 time instead of the current time")
	cmd.Flags().String("output", "", "Write the report to this file instead of stdout")
	cmd.MarkFlagRequired("snapshot")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	format, _ := cmd.Flags().GetString("format")
	nowFlag, _ := cmd.Flags().GetString("now")
	outPath, _ := cmd.Flags().GetString("output")

	now, err := parseNow(nowFlag, time.Now)
	if err != nil {
		return err
	}
	snap, err := loadSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	board := dashboard.NewService(dashboard.WithClock(func() time.Time { return now }))
	board.Replace(snap)

	w, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer w.Close()

	return writeReport(w, board.Report(), format)
}

func parseNow(value string, clock func() time.Time) (time.Time, error) {
	if value == "" {
		return clock().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", value, err)
	}
	return t.UTC(), nil
}

func loadSnapshot(path string) (*models.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap models.Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

func writeReport(w io.Writer, report models.Report, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return output.WriteJSON(w, report)
	case "markdown", "md":
		return output.WriteMarkdown(w, report)
	default:
		return fmt.Errorf("unsupported format: %s (use json or markdown)", format)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns stdout for an empty path.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}
