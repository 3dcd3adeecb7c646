package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sync run states
const (
	SyncRunning   = "in_progress"
	SyncCompleted = "completed"
	SyncFailed    = "error"
)

// SyncStatus tracks one snapshot sync run.
type SyncStatus struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	IsSyncing     bool           `json:"is_syncing"`
	Repositories  []string       `json:"repositories"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	Counts        map[string]int `json:"counts,omitempty"`
	BatchProgress *BatchProgress `json:"batch_progress,omitempty"`
}

// BatchProgress tracks the progress of batch processing
type BatchProgress struct {
	TotalBatches     int       `json:"total_batches"`
	ProcessedBatches int       `json:"processed_batches"`
	TotalItems       int       `json:"total_items"`
	ProcessedItems   int       `json:"processed_items"`
	LastProcessedKey string    `json:"last_processed_key"`
	StartTime        time.Time `json:"start_time"`
	LastUpdateTime   time.Time `json:"last_update_time"`
	Errors           []string  `json:"errors,omitempty"`
}

// Duration returns how long the run took, or has been running.
func (s *SyncStatus) Duration(now time.Time) time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}

// String returns the JSON string representation of the sync status
func (s *SyncStatus) String() string {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal sync status: %v"}`, err)
	}
	return string(data)
}
