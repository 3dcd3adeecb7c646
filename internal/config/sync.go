package config

import "time"

// SyncConfig holds synchronization configuration
type SyncConfig struct {
	Timeout            time.Duration
	MaxIssues          int
	MaxPullRequests    int
	MaxPullDetails     int
	MaxCommits         int
	MaxEvents          int
	FetchIssueComments bool
	BatchConfig        BatchConfig
}

// BatchConfig holds batch processing configuration
type BatchConfig struct {
	Size       int
	Workers    int
	MaxRetries int
	BatchDelay time.Duration
}

// DefaultSyncConfig returns the default sync configuration
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		Timeout:            30 * time.Minute,
		MaxIssues:          1000,
		MaxPullRequests:    500,
		MaxPullDetails:     200,
		MaxCommits:         1000,
		MaxEvents:          300,
		FetchIssueComments: true,
		BatchConfig: BatchConfig{
			Size:       200,
			Workers:    3,
			MaxRetries: 3,
			BatchDelay: 100 * time.Millisecond,
		},
	}
}
