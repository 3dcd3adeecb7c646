package github

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/team-insights/internal/batch"
	"github.com/Kamar-Folarin/team-insights/internal/config"
	"github.com/Kamar-Folarin/team-insights/internal/errors"
	"github.com/Kamar-Folarin/team-insights/internal/models"
)

// SyncServiceImpl implements the SyncService interface
type SyncServiceImpl struct {
	collector     SnapshotCollector
	store         RecordStore
	statusManager StatusManager
	sink          SnapshotSink
	config        *config.SyncConfig
	org           string
	repos         []string
	logger        *logrus.Logger
	now           func() time.Time

	mu      sync.Mutex
	running *models.SyncStatus
	wg      sync.WaitGroup

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSyncService creates a new sync service
func NewSyncService(
	collector SnapshotCollector,
	store RecordStore,
	statusManager StatusManager,
	sink SnapshotSink,
	cfg *config.Config,
	logger *logrus.Logger,
) *SyncServiceImpl {
	syncCfg := cfg.Sync
	if syncCfg == nil {
		syncCfg = config.DefaultSyncConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncServiceImpl{
		collector:     collector,
		store:         store,
		statusManager: statusManager,
		sink:          sink,
		config:        syncCfg,
		org:           cfg.GitHubOrg,
		repos:         cfg.Repositories,
		logger:        logger,
		now:           time.Now,
		cron:          cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// TriggerSync starts a sync in the background and returns its initial status
func (s *SyncServiceImpl) TriggerSync(ctx context.Context) (*models.SyncStatus, error) {
	status, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(status)
	}()

	return s.snapshotOf(status), nil
}

// RunSync runs a sync to completion
func (s *SyncServiceImpl) RunSync(ctx context.Context) (*models.SyncStatus, error) {
	status, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	defer s.wg.Done()
	if err := s.execute(status); err != nil {
		return s.snapshotOf(status), err
	}
	return s.snapshotOf(status), nil
}

// begin claims the single sync slot and records the run as in progress.
func (s *SyncServiceImpl) begin(ctx context.Context) (*models.SyncStatus, error) {
	s.mu.Lock()
	if s.running != nil {
		id := s.running.ID
		s.mu.Unlock()
		s.logger.WithField("sync_id", id).Warn("Sync already in progress")
		return nil, errors.NewSyncInProgressError(id)
	}
	status := &models.SyncStatus{
		ID:           uuid.NewString(),
		Status:       models.SyncRunning,
		IsSyncing:    true,
		Repositories: s.repos,
		StartTime:    s.now().UTC(),
	}
	s.running = status
	s.mu.Unlock()

	if err := s.statusManager.UpdateStatus(ctx, s.snapshotOf(status)); err != nil {
		s.mu.Lock()
		s.running = nil
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to record sync start: %w", err)
	}
	return status, nil
}

// execute runs a claimed sync and releases the slot when done.
func (s *SyncServiceImpl) execute(status *models.SyncStatus) error {
	logger := s.logger.WithField("sync_id", status.ID)
	logger.Info("Starting sync")

	ctx, cancel := context.WithTimeout(s.ctx, s.config.Timeout)
	defer cancel()

	err := s.sync(ctx, status, logger)

	s.mu.Lock()
	end := s.now().UTC()
	status.EndTime = &end
	status.IsSyncing = false
	if err != nil {
		status.Status = models.SyncFailed
		status.LastError = err.Error()
	} else {
		status.Status = models.SyncCompleted
	}
	final := *status
	s.running = nil
	s.mu.Unlock()

	// The run context may already be cancelled, the final status must still land.
	if uerr := s.statusManager.UpdateStatus(context.Background(), &final); uerr != nil {
		logger.WithError(uerr).Error("Failed to record sync result")
	}

	if err != nil {
		logger.WithError(err).Error("Sync failed")
		return err
	}
	logger.WithFields(logrus.Fields{
		"duration": final.Duration(end),
		"counts":   final.Counts,
	}).Info("Sync completed")
	return nil
}

func (s *SyncServiceImpl) sync(ctx context.Context, status *models.SyncStatus, logger *logrus.Entry) error {
	snap, err := s.collector.Collect(ctx, s.org, s.repos)
	if err != nil {
		return fmt.Errorf("failed to collect snapshot: %w", err)
	}

	// Nothing is pruned until every kind is saved, and a failure leaves the
	// previous snapshot in place.
	err = s.store.InTransaction(ctx, func(ctx context.Context) error {
		processor := batch.NewProcessor(&s.config.BatchConfig)
		for _, kind := range models.SnapshotKinds {
			err := processor.ProcessItems(ctx, snap.Records(kind), func(ctx context.Context, items []models.Record) error {
				return s.store.SaveRecords(ctx, kind, status.ID, items)
			})
			s.recordProgress(status, processor)
			if err != nil {
				return fmt.Errorf("failed to save %s: %w", kind, err)
			}
		}

		for _, kind := range models.SnapshotKinds {
			pruned, err := s.store.PruneRecords(ctx, kind, status.ID)
			if err != nil {
				return fmt.Errorf("failed to prune %s: %w", kind, err)
			}
			logger.WithFields(logrus.Fields{
				"kind":   kind,
				"saved":  len(snap.Records(kind)),
				"pruned": pruned,
			}).Debug("Stored snapshot records")
		}
		return nil
	})
	if err != nil {
		return err
	}

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}
	snap.Projects = projects

	s.mu.Lock()
	status.Counts = collectedCounts(snap)
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.Replace(snap)
	}
	return nil
}

// recordProgress copies the processor's latest progress into the status.
func (s *SyncServiceImpl) recordProgress(status *models.SyncStatus, processor *batch.Processor) {
	select {
	case progress := <-processor.GetProgress():
		s.mu.Lock()
		status.BatchProgress = progress
		s.mu.Unlock()
	default:
	}
}

// GetSyncStatus returns the running sync, or the most recent one
func (s *SyncServiceImpl) GetSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running != nil {
		return s.snapshotOf(running), nil
	}
	return s.statusManager.GetLatest(ctx)
}

// ListSyncStatuses returns recent sync runs, newest first
func (s *SyncServiceImpl) ListSyncStatuses(ctx context.Context, limit int) ([]*models.SyncStatus, error) {
	return s.statusManager.ListStatuses(ctx, limit)
}

// Recover marks runs left in progress by a previous process as failed
func (s *SyncServiceImpl) Recover(ctx context.Context) error {
	latest, err := s.statusManager.GetLatest(ctx)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !latest.IsSyncing {
		return nil
	}

	s.logger.WithField("sync_id", latest.ID).Warn("Clearing sync interrupted by shutdown")
	stale := *latest
	end := s.now().UTC()
	stale.IsSyncing = false
	stale.Status = models.SyncFailed
	stale.LastError = "sync interrupted"
	stale.EndTime = &end
	return s.statusManager.UpdateStatus(ctx, &stale)
}

// Start schedules periodic syncs with a cron spec
func (s *SyncServiceImpl) Start(spec string) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.RunSync(s.ctx); err != nil && !errors.IsConflict(err) {
			s.logger.WithError(err).Error("Scheduled sync failed")
		}
	})
	if err != nil {
		return errors.NewValidationError(fmt.Sprintf("invalid sync schedule %q", spec), err)
	}
	s.cron.Start()
	s.logger.WithField("schedule", spec).Info("Scheduled periodic sync")
	return nil
}

// Stop halts the schedule and cancels a running sync
func (s *SyncServiceImpl) Stop() {
	s.cron.Stop()
	s.cancel()
	s.wg.Wait()
}

func (s *SyncServiceImpl) snapshotOf(status *models.SyncStatus) *models.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *status
	return &cp
}
