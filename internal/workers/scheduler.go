package workers

import (
	"context"
	"sync"
	"time"

	"optiflow/internal/metrics"
	"optiflow/pkg/errors"
	"optiflow/pkg/logger"
)

// Scheduler manages and coordinates multiple workers
type Scheduler struct {
	workers      []Worker
	suspendDelay time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	log          *logger.Logger
	started      bool
}

// NewScheduler creates a new worker scheduler. suspendDelay is how long a
// worker sleeps before retrying after reporting missing credentials.
func NewScheduler(suspendDelay time.Duration) *Scheduler {
	return &Scheduler{
		workers:      make([]Worker, 0),
		suspendDelay: suspendDelay,
		log:          logger.Get(),
		started:      false,
	}
}

// RegisterWorker adds a worker to the scheduler
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnw("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start begins running all registered workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}

	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Infow("Starting worker scheduler", "workers", len(s.workers))

	for _, worker := range s.workers {
		if !worker.Enabled() {
			s.log.Infow("Skipping disabled worker", "worker", worker.Name())
			continue
		}

		s.wg.Add(1)
		go s.runWorker(worker)
	}

	return nil
}

// Stop gracefully shuts down all workers, waiting up to one minute for
// in-flight iterations to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
	case <-time.After(time.Minute):
		s.log.Warn("Worker shutdown timed out after 1 minute")
		shutdownErr = errors.Wrapf(errors.ErrInternal, "shutdown timeout after 1 minute")
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

// runWorker executes a single worker in a loop. Each iteration schedules
// the next one with a timer: the full interval normally, the suspend delay
// when the worker reports missing credentials.
func (s *Scheduler) runWorker(worker Worker) {
	defer s.wg.Done()

	s.log.Infow("Worker started", "worker", worker.Name())

	// Run immediately on start
	delay := s.nextDelay(worker, s.executeWorker(worker))

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Infow("Worker stopping due to context cancellation", "worker", worker.Name())
			return

		case <-timer.C:
			timer.Reset(s.nextDelay(worker, s.executeWorker(worker)))
		}
	}
}

func (s *Scheduler) nextDelay(worker Worker, err error) time.Duration {
	if errors.Is(err, errors.ErrNoAccessToken) && s.suspendDelay > 0 {
		return s.suspendDelay
	}
	return worker.Interval()
}

// executeWorker runs a single iteration of the worker with error handling
func (s *Scheduler) executeWorker(worker Worker) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("Worker panicked",
				"worker", worker.Name(),
				"panic", r,
			)
			err = errors.Wrapf(errors.ErrInternal, "worker panic: %v", r)
		}
	}()

	err = worker.Run(s.ctx)

	switch {
	case errors.Is(err, errors.ErrNoAccessToken):
		metrics.RecordWorkerExecution(worker.Name(), time.Since(start), "suspended")
		s.log.Warnw("Worker suspended, credentials missing",
			"worker", worker.Name(),
			"retry_in", s.suspendDelay,
		)
	case err != nil:
		metrics.RecordWorkerExecution(worker.Name(), time.Since(start), "error")
		s.log.Errorw("Worker execution failed",
			"worker", worker.Name(),
			"error", err,
			"duration", time.Since(start),
		)
	default:
		metrics.RecordWorkerExecution(worker.Name(), time.Since(start), "success")
		s.log.Debugw("Worker execution completed",
			"worker", worker.Name(),
			"duration", time.Since(start),
		)
	}
	return err
}

// GetWorkers returns a list of all registered workers
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]Worker, len(s.workers))
	copy(workers, s.workers)
	return workers
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
