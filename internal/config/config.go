package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port               string
	DBConnectionString string
	GitHubToken        string
	GitHubOrg          string
	Repositories       []string
	SyncSchedule       string
	SyncOnStart        bool
	LogLevel           string
	PageSize           int
	GitHub             *GitHubConfig
	Sync               *SyncConfig
}

func Load() (*Config, error) {
	pageSize, err := strconv.Atoi(getEnv("PAGE_SIZE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAGE_SIZE: %w", err)
	}

	syncOnStart, err := strconv.ParseBool(getEnv("SYNC_ON_START", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_ON_START: %w", err)
	}

	gh := DefaultGitHubConfig()
	gh.Token = getEnv("GITHUB_TOKEN", "")
	gh.APIBaseURL = getEnv("GITHUB_API_URL", gh.APIBaseURL)

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBConnectionString: getEnv("DB_CONNECTION_STRING", ""),
		GitHubToken:        gh.Token,
		GitHubOrg:          getEnv("GITHUB_ORG", ""),
		Repositories:       splitList(getEnv("GITHUB_REPOS", "")),
		SyncSchedule:       getEnv("SYNC_SCHEDULE", "@every 1h"),
		SyncOnStart:        syncOnStart,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		PageSize:           pageSize,
		GitHub:             gh,
		Sync:               DefaultSyncConfig(),
	}, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.DBConnectionString == "" {
		missing = append(missing, "DB_CONNECTION_STRING")
	}
	if c.GitHubToken == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if c.GitHubOrg == "" && len(c.Repositories) == 0 {
		missing = append(missing, "GITHUB_ORG or GITHUB_REPOS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
