package github

import (
	"context"
	"fmt"
	"sync"

	"github.com/Kamar-Folarin/team-insights/internal/errors"
	"github.com/Kamar-Folarin/team-insights/internal/models"
)

// StatusManagerImpl implements the StatusManager interface
type StatusManagerImpl struct {
	store  StatusStore
	mu     sync.RWMutex
	cache  map[string]*models.SyncStatus
	latest string
}

// NewStatusManager creates a new status manager
func NewStatusManager(store StatusStore) StatusManager {
	return &StatusManagerImpl{
		store: store,
		cache: make(map[string]*models.SyncStatus),
	}
}

// GetStatus retrieves the status of one sync run
func (m *StatusManagerImpl) GetStatus(ctx context.Context, id string) (*models.SyncStatus, error) {
	m.mu.RLock()
	if status, exists := m.cache[id]; exists {
		m.mu.RUnlock()
		return status, nil
	}
	m.mu.RUnlock()

	status, err := m.store.GetSyncStatus(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}
	if status == nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("sync status not found: %s", id), nil)
	}

	m.mu.Lock()
	m.cache[id] = status
	m.mu.Unlock()

	return status, nil
}

// GetLatest retrieves the most recent sync run
func (m *StatusManagerImpl) GetLatest(ctx context.Context) (*models.SyncStatus, error) {
	m.mu.RLock()
	if status, exists := m.cache[m.latest]; exists {
		m.mu.RUnlock()
		return status, nil
	}
	m.mu.RUnlock()

	status, err := m.store.GetLatestSyncStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest sync status: %w", err)
	}
	if status == nil {
		return nil, errors.NewNotFoundError("no sync has run yet", nil)
	}

	m.mu.Lock()
	m.cache[status.ID] = status
	m.latest = status.ID
	m.mu.Unlock()

	return status, nil
}

// UpdateStatus creates or updates a sync run
func (m *StatusManagerImpl) UpdateStatus(ctx context.Context, status *models.SyncStatus) error {
	if status == nil {
		return errors.NewValidationError("status cannot be nil", nil)
	}
	if status.ID == "" {
		return errors.NewValidationError("sync id cannot be empty", nil)
	}

	if err := m.store.UpdateSyncStatus(ctx, status); err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	m.mu.Lock()
	m.cache[status.ID] = status
	if latest, ok := m.cache[m.latest]; !ok || !status.StartTime.Before(latest.StartTime) {
		m.latest = status.ID
	}
	m.mu.Unlock()

	return nil
}

// ListStatuses retrieves recent sync runs
func (m *StatusManagerImpl) ListStatuses(ctx context.Context, limit int) ([]*models.SyncStatus, error) {
	statuses, err := m.store.ListSyncStatuses(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync statuses: %w", err)
	}

	m.mu.Lock()
	for _, status := range statuses {
		m.cache[status.ID] = status
	}
	m.mu.Unlock()

	return statuses, nil
}

// ClearStatuses clears all sync statuses
func (m *StatusManagerImpl) ClearStatuses(ctx context.Context) error {
	if err := m.store.ClearSyncStatuses(ctx); err != nil {
		return fmt.Errorf("failed to clear sync statuses: %w", err)
	}

	m.mu.Lock()
	m.cache = make(map[string]*models.SyncStatus)
	m.latest = ""
	m.mu.Unlock()

	return nil
}
