// Package scheduler polls for analyzable heap dump tasks and runs them
// on a bounded worker pool.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jeheap-analysis/pkg/config"
	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/utils"
)

// Task is the unit of work handed to the worker pool.
type Task struct {
	ID        int64
	UUID      string
	Format    model.DumpFormat
	DumpFile  string
	UserName  string
	COSBucket string
}

// TaskFetcher supplies pending tasks and claims them for processing.
type TaskFetcher interface {
	// FetchPendingTasks returns up to limit tasks ready for analysis.
	FetchPendingTasks(ctx context.Context, limit int) ([]*Task, error)

	// LockTask claims a task, returning false when another worker got it.
	LockTask(ctx context.Context, taskID int64) (bool, error)

	// UpdateTaskStatus records the analysis outcome for a task.
	UpdateTaskStatus(ctx context.Context, taskID int64, status model.AnalysisStatus, info string) error
}

// TaskProcessor runs the analysis pipeline for one task.
type TaskProcessor interface {
	Process(ctx context.Context, task *Task) error
}

// SchedulerConfig holds scheduler tuning knobs.
type SchedulerConfig struct {
	PollInterval  time.Duration // How often to poll for new tasks
	WorkerCount   int           // Number of concurrent workers
	TaskBatchSize int           // Max tasks to fetch per poll
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  2 * time.Second,
		WorkerCount:   5,
		TaskBatchSize: 10,
	}
}

// FromConfig creates scheduler config from application config.
func FromConfig(cfg *config.SchedulerConfig) *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  time.Duration(cfg.PollInterval) * time.Second,
		WorkerCount:   cfg.WorkerCount,
		TaskBatchSize: cfg.TaskBatchSize,
	}
}

// Scheduler manages the poll loop and worker pool.
type Scheduler struct {
	config    *SchedulerConfig
	fetcher   TaskFetcher
	processor TaskProcessor
	logger    utils.Logger
	clock     utils.Clock

	workerPool chan struct{} // Semaphore for worker count
	wg         sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New creates a Scheduler.
func New(config *SchedulerConfig, fetcher TaskFetcher, processor TaskProcessor, logger utils.Logger) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Scheduler{
		config:     config,
		fetcher:    fetcher,
		processor:  processor,
		logger:     logger,
		clock:      utils.NewRealClock(),
		workerPool: make(chan struct{}, config.WorkerCount),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the poll loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting scheduler with %d workers", s.config.WorkerCount)

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerPool <- struct{}{}
	}

	go s.pollLoop(ctx)

	return nil
}

// Stop stops the scheduler and waits for in-flight tasks to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	close(s.stopCh)

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// pollLoop periodically fetches pending tasks and dispatches them.
func (s *Scheduler) pollLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// Poll immediately on startup.
	s.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce fetches one batch of pending tasks and dispatches each to a
// worker after claiming it.
func (s *Scheduler) pollOnce(ctx context.Context) {
	tasks, err := s.fetcher.FetchPendingTasks(ctx, s.config.TaskBatchSize)
	if err != nil {
		s.logger.Error("Failed to fetch pending tasks: %v", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	s.logger.Debug("Fetched %d pending tasks", len(tasks))

	for _, task := range tasks {
		locked, err := s.fetcher.LockTask(ctx, task.ID)
		if err != nil {
			s.logger.Error("Failed to lock task %d: %v", task.ID, err)
			continue
		}
		if !locked {
			// Claimed by another instance between fetch and lock.
			s.logger.Debug("Task %d already claimed", task.ID)
			continue
		}

		select {
		case <-s.workerPool:
			s.wg.Add(1)
			go s.processTask(ctx, task)
		case <-ctx.Done():
			s.releaseTask(task)
			return
		case <-s.stopCh:
			s.releaseTask(task)
			return
		}
	}
}

// processTask runs one task on a worker slot and records the outcome.
func (s *Scheduler) processTask(ctx context.Context, task *Task) {
	defer func() {
		s.workerPool <- struct{}{}
		s.wg.Done()
	}()

	s.logger.Info("Processing task %d (UUID: %s, Format: %s)", task.ID, task.UUID, task.Format)

	startTime := s.clock.Now()
	err := s.processor.Process(ctx, task)
	duration := s.clock.Since(startTime)

	if err != nil {
		s.logger.Error("Task %d failed after %v: %v", task.ID, duration, err)
		if uerr := s.fetcher.UpdateTaskStatus(ctx, task.ID, model.AnalysisStatusFailed, err.Error()); uerr != nil {
			s.logger.Error("Failed to mark task %d failed: %v", task.ID, uerr)
		}
		return
	}

	s.logger.Info("Task %d completed successfully in %v", task.ID, duration)
}

// releaseTask returns a claimed task to the pending state so a later
// poll can pick it up again. The poll context may already be canceled,
// so the update runs on a fresh one.
func (s *Scheduler) releaseTask(task *Task) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.fetcher.UpdateTaskStatus(ctx, task.ID, model.AnalysisStatusPending, "released before dispatch"); err != nil {
		s.logger.Error("Failed to release task %d: %v", task.ID, err)
	}
}

// Stats returns current scheduler statistics.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SchedulerStats{
		ActiveWorkers: s.config.WorkerCount - len(s.workerPool),
		TotalWorkers:  s.config.WorkerCount,
		Running:       running,
	}
}

// SchedulerStats holds scheduler statistics.
type SchedulerStats struct {
	ActiveWorkers int  `json:"active_workers"`
	TotalWorkers  int  `json:"total_workers"`
	Running       bool `json:"running"`
}
