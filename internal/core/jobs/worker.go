package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/metrics"
)

// Worker polls one queue with a fixed number of goroutines
type Worker struct {
	queue    *Queue
	config   WorkerConfig
	metrics  *metrics.Metrics
	handlers map[string]Handler

	mu      sync.RWMutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorker(queue *Queue, config WorkerConfig, m *metrics.Metrics) *Worker {
	def := DefaultWorkerConfig()
	if config.Queue == "" {
		config.Queue = def.Queue
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	return &Worker{
		queue:    queue,
		config:   config,
		metrics:  m,
		handlers: make(map[string]Handler),
	}
}

func (w *Worker) RegisterHandler(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[h.Type()] = h
	log.Info().Str("queue", w.config.Queue).Str("type", h.Type()).Msg("✅ Registered job handler")
}

// Start launches the polling goroutines. They run until ctx is cancelled
// or Stop is called.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("worker for queue %q already started", w.config.Queue)
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}

	log.Info().
		Str("queue", w.config.Queue).
		Int("concurrency", w.config.Concurrency).
		Msg("🚀 Job worker started")
	return nil
}

// Stop cancels polling and waits for running jobs to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	log.Info().Str("queue", w.config.Queue).Msg("🛑 Job worker stopped")
}

func (w *Worker) run(ctx context.Context, id int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain everything that is ready before sleeping again.
			for ctx.Err() == nil {
				processed, err := w.ProcessNext(ctx)
				if err != nil {
					log.Warn().Err(err).Int("worker", id).Str("queue", w.config.Queue).Msg("⚠️ Job worker error")
					break
				}
				if !processed {
					break
				}
			}
		}
	}
}

// ProcessNext claims and runs one job. It reports whether a job was run.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	job, err := w.queue.Dequeue(ctx, w.config.Queue)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	logger := log.With().
		Str("job_id", job.ID.String()).
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Logger()

	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()
	if !ok {
		logger.Error().Msg("❌ No handler registered for job type")
		w.fail(ctx, job, fmt.Errorf("no handler registered for job type: %s", job.Type))
		return true, nil
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	start := time.Now()
	result, err := handler.Handle(jobCtx, job)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("❌ Job failed")
		w.fail(ctx, job, err)
		return true, nil
	}

	if err := w.queue.MarkCompleted(ctx, job.ID, result); err != nil {
		logger.Warn().Err(err).Msg("⚠️ Failed to mark job completed")
	}
	w.metrics.JobProcessed(job.Type, string(StatusCompleted))
	logger.Info().Dur("elapsed", elapsed).Msg("✅ Job completed")
	return true, nil
}

func (w *Worker) fail(ctx context.Context, job *Job, jobErr error) {
	status, err := w.queue.MarkFailed(ctx, job.ID, jobErr)
	if err != nil {
		log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("⚠️ Failed to mark job failed")
		return
	}
	w.metrics.JobProcessed(job.Type, string(status))
}
