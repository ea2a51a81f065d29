package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Queue stores jobs in the database. Workers claim a job with a
// compare-and-set on its status, so several workers can share one table
// without row locks.
type Queue struct {
	db  *gorm.DB
	now func() time.Time
}

func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

func (q *Queue) Enqueue(ctx context.Context, jobType string, payload interface{}, opts EnqueueOptions) (*Job, error) {
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}

	job := &Job{
		Queue:       opts.Queue,
		Type:        jobType,
		Payload:     payloadJSON,
		Status:      StatusPending,
		Priority:    opts.Priority,
		MaxRetries:  opts.MaxRetries,
		ScheduledAt: opts.ScheduleAt,
	}
	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// Dequeue claims the next ready job of the queue. It returns nil, nil when
// nothing is ready or another worker won the claim.
func (q *Queue) Dequeue(ctx context.Context, queueName string) (*Job, error) {
	now := q.now()
	ready := []JobStatus{StatusPending, StatusRetrying}

	var job Job
	err := q.db.WithContext(ctx).
		Where("queue = ? AND status IN ?", queueName, ready).
		Where("scheduled_at IS NULL OR scheduled_at <= ?", now).
		Order("priority DESC, created_at ASC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}

	res := q.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", job.ID, job.Status).
		Updates(map[string]interface{}{
			"status":     StatusProcessing,
			"started_at": now,
			"attempts":   gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to claim job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	job.Status = StatusProcessing
	job.StartedAt = &now
	job.Attempts++
	return &job, nil
}

func (q *Queue) MarkCompleted(ctx context.Context, jobID uuid.UUID, result interface{}) error {
	updates := map[string]interface{}{
		"status":       StatusCompleted,
		"completed_at": q.now(),
		"error":        "",
	}
	if result != nil {
		resultJSON, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to serialize result: %w", err)
		}
		updates["result"] = resultJSON
	}
	return q.db.WithContext(ctx).Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error
}

// MarkFailed records the error and either schedules a retry with
// exponential backoff or fails the job for good.
func (q *Queue) MarkFailed(ctx context.Context, jobID uuid.UUID, jobErr error) (JobStatus, error) {
	var job Job
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return "", fmt.Errorf("failed to find job: %w", err)
	}

	now := q.now()
	updates := map[string]interface{}{
		"error":     jobErr.Error(),
		"failed_at": now,
	}
	status := StatusFailed
	if job.Attempts < job.MaxRetries {
		status = StatusRetrying
		updates["scheduled_at"] = now.Add(backoff(job.Attempts))
	}
	updates["status"] = status

	if err := q.db.WithContext(ctx).Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error; err != nil {
		return "", fmt.Errorf("failed to mark job failed: %w", err)
	}
	return status, nil
}

func (q *Queue) Cancel(ctx context.Context, jobID uuid.UUID) error {
	res := q.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status IN ?", jobID, []JobStatus{StatusPending, StatusRetrying}).
		Update("status", StatusCancelled)
	if res.Error != nil {
		return fmt.Errorf("failed to cancel job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job not found or not in cancellable state")
	}
	return nil
}

func (q *Queue) Get(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	var job Job
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (q *Queue) List(ctx context.Context, filter JobFilter) ([]Job, error) {
	query := q.db.WithContext(ctx).Model(&Job{})
	if filter.Queue != "" {
		query = query.Where("queue = ?", filter.Queue)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var jobs []Job
	if err := query.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// CountByStatus returns the number of jobs in each status.
func (q *Queue) CountByStatus(ctx context.Context) (map[JobStatus]int64, error) {
	var rows []struct {
		Status JobStatus
		Count  int64
	}
	err := q.db.WithContext(ctx).Model(&Job{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	out := make(map[JobStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// DeleteOld removes completed, failed and cancelled jobs last touched
// before now-olderThan.
func (q *Queue) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := q.now().Add(-olderThan)
	res := q.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []JobStatus{StatusCompleted, StatusFailed, StatusCancelled}, cutoff).
		Delete(&Job{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// backoff is 2^attempt seconds, capped at one hour.
func backoff(attempt int) time.Duration {
	if attempt > 12 {
		return time.Hour
	}
	d := time.Duration(1<<attempt) * time.Second
	if d > time.Hour {
		d = time.Hour
	}
	return d
}
