package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kamar-Folarin/team-insights/internal/config"
	"github.com/Kamar-Folarin/team-insights/internal/models"
)

// ProcessFunc handles one batch of records.
type ProcessFunc func(ctx context.Context, batch []models.Record) error

// Processor handles batch processing of records
type Processor struct {
	config     *config.BatchConfig
	statusChan chan *models.BatchProgress
	mu         sync.Mutex
}

// NewProcessor creates a new batch processor
func NewProcessor(cfg *config.BatchConfig) *Processor {
	return &Processor{
		config:     cfg,
		statusChan: make(chan *models.BatchProgress, 1),
	}
}

// ProcessItems splits items into batches and runs processFn over them with a
// bounded worker pool. The first batch error is returned after all started
// batches finish.
func (p *Processor) ProcessItems(ctx context.Context, items []models.Record, processFn ProcessFunc) error {
	totalItems := len(items)
	if totalItems == 0 {
		return nil
	}

	batchSize := p.config.Size
	if batchSize <= 0 {
		batchSize = 100
	}
	workers := p.config.Workers
	if workers <= 0 {
		workers = 1
	}

	totalBatches := (totalItems + batchSize - 1) / batchSize
	progress := &models.BatchProgress{
		TotalBatches:   totalBatches,
		TotalItems:     totalItems,
		StartTime:      time.Now(),
		LastUpdateTime: time.Now(),
	}
	p.updateProgress(progress)

	workerChan := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var processErr error
	var mu sync.Mutex

loop:
	for i := 0; i < totalBatches; i++ {
		select {
		case <-ctx.Done():
			mu.Lock()
			if processErr == nil {
				processErr = ctx.Err()
			}
			mu.Unlock()
			break loop
		case workerChan <- struct{}{}:
		}

		start := i * batchSize
		end := start + batchSize
		if end > totalItems {
			end = totalItems
		}
		batch := items[start:end]

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-workerChan }()

			err := p.processBatchWithRetry(ctx, batch, processFn)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if processErr == nil {
					processErr = err
				}
				progress.Errors = append(progress.Errors, err.Error())
				p.updateProgress(snapshotOf(progress))
				return
			}
			progress.ProcessedBatches++
			progress.ProcessedItems += len(batch)
			progress.LastProcessedKey = batch[len(batch)-1].RecordKey()
			progress.LastUpdateTime = time.Now()
			p.updateProgress(snapshotOf(progress))
		}()
	}

	wg.Wait()
	return processErr
}

// GetProgress returns the current progress channel
func (p *Processor) GetProgress() <-chan *models.BatchProgress {
	return p.statusChan
}

// processBatchWithRetry processes a batch with retry logic
func (p *Processor) processBatchWithRetry(ctx context.Context, batch []models.Record, processFn ProcessFunc) error {
	var lastErr error
	for retry := 0; retry <= p.config.MaxRetries; retry++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := processFn(ctx, batch)
		if err == nil {
			return nil
		}

		lastErr = err
		if retry < p.config.MaxRetries {
			backoff := time.Duration(float64(p.config.BatchDelay) * float64(retry+1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("failed to process batch after %d retries: %w", p.config.MaxRetries, lastErr)
}

// updateProgress publishes the latest progress, replacing an unread value.
func (p *Processor) updateProgress(progress *models.BatchProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case p.statusChan <- progress:
	default:
		select {
		case <-p.statusChan:
		default:
		}
		p.statusChan <- progress
	}
}

func snapshotOf(progress *models.BatchProgress) *models.BatchProgress {
	cp := *progress
	cp.Errors = append([]string(nil), progress.Errors...)
	return &cp
}
