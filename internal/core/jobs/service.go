package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/metrics"
)

// Service enqueues jobs and owns the workers that run them
type Service struct {
	queue   *Queue
	metrics *metrics.Metrics
	workers []*Worker
}

func NewService(db *gorm.DB, m *metrics.Metrics) *Service {
	return &Service{
		queue:   NewQueue(db),
		metrics: m,
	}
}

// Enqueue adds a job. Without opts the default queue, priority and retry
// count are used.
func (s *Service) Enqueue(ctx context.Context, jobType string, payload interface{}, opts ...EnqueueOptions) (*Job, error) {
	options := DefaultEnqueueOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	return s.queue.Enqueue(ctx, jobType, payload, options)
}

// EnqueueAt schedules a job to become ready at a given time.
func (s *Service) EnqueueAt(ctx context.Context, jobType string, payload interface{}, at time.Time, opts ...EnqueueOptions) (*Job, error) {
	options := DefaultEnqueueOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	options.ScheduleAt = &at
	return s.queue.Enqueue(ctx, jobType, payload, options)
}

func (s *Service) Cancel(ctx context.Context, jobID uuid.UUID) error {
	return s.queue.Cancel(ctx, jobID)
}

func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	return s.queue.Get(ctx, jobID)
}

func (s *Service) ListJobs(ctx context.Context, filter JobFilter) ([]Job, error) {
	return s.queue.List(ctx, filter)
}

func (s *Service) Stats(ctx context.Context) (map[JobStatus]int64, error) {
	return s.queue.CountByStatus(ctx)
}

// RegisterWorker creates a worker for config.Queue with the given handlers.
func (s *Service) RegisterWorker(config WorkerConfig, handlers ...Handler) *Worker {
	w := NewWorker(s.queue, config, s.metrics)
	for _, h := range handlers {
		w.RegisterHandler(h)
	}
	s.workers = append(s.workers, w)
	return w
}

func (s *Service) StartWorkers(ctx context.Context) error {
	for _, w := range s.workers {
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
	}
	return nil
}

// StopWorkers stops every worker and waits for in-flight jobs.
func (s *Service) StopWorkers() {
	for _, w := range s.workers {
		w.Stop()
	}
}

// Cleanup deletes finished jobs older than olderThan.
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queue.DeleteOld(ctx, olderThan)
}
