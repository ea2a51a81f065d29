package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusRetrying   JobStatus = "retrying"
	StatusCancelled  JobStatus = "cancelled"
)

// JobPriority orders ready jobs; higher runs first.
type JobPriority int

const (
	PriorityLow    JobPriority = 0
	PriorityNormal JobPriority = 5
	PriorityHigh   JobPriority = 10
)

// Job is a unit of background work stored in the jobs table
type Job struct {
	ID      uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Queue   string         `gorm:"type:varchar(100);not null;index" json:"queue"`
	Type    string         `gorm:"type:varchar(100);not null" json:"type"`
	Payload datatypes.JSON `json:"payload,omitempty"`

	Status   JobStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority JobPriority `gorm:"not null;default:5;index" json:"priority"`

	Attempts   int `gorm:"not null;default:0" json:"attempts"`
	MaxRetries int `gorm:"not null;default:3" json:"max_retries"`

	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`

	Error  string         `gorm:"type:text" json:"error,omitempty"`
	Result datatypes.JSON `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// Decode unmarshals the job payload into v.
func (j *Job) Decode(v interface{}) error {
	if len(j.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", j.Type, err)
	}
	return nil
}

// Handler runs jobs of one type. A returned error schedules a retry until
// MaxRetries is reached. A non-nil result is stored on the job.
type Handler interface {
	Type() string
	Handle(ctx context.Context, job *Job) (result interface{}, err error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	JobType string
	Fn      func(ctx context.Context, job *Job) (interface{}, error)
}

func (h HandlerFunc) Type() string { return h.JobType }

func (h HandlerFunc) Handle(ctx context.Context, job *Job) (interface{}, error) {
	return h.Fn(ctx, job)
}

type EnqueueOptions struct {
	Queue      string
	Priority   JobPriority
	MaxRetries int
	ScheduleAt *time.Time
}

func DefaultEnqueueOptions() EnqueueOptions {
	return EnqueueOptions{
		Queue:      "default",
		Priority:   PriorityNormal,
		MaxRetries: 3,
	}
}

type JobFilter struct {
	Queue  string
	Type   string
	Status JobStatus
	Limit  int
}

type WorkerConfig struct {
	Queue        string
	Concurrency  int
	PollInterval time.Duration
	Timeout      time.Duration // per job
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Queue:        "default",
		Concurrency:  2,
		PollInterval: time.Second,
		Timeout:      5 * time.Minute,
	}
}
