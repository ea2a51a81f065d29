package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionStatusChange = "status_change"
	ActionAssign       = "assign"
	ActionSignIn       = "sign_in"
	ActionSignOut      = "sign_out"
)

// AuditLog represents a system audit log entry
type AuditLog struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`

	// Who
	ActorID   *uuid.UUID `json:"actor_id,omitempty" gorm:"type:uuid;index"`
	ActorRole string     `json:"actor_role,omitempty" gorm:"type:text"`

	// Action details
	Action   string `json:"action" gorm:"type:text;not null;index"`
	Entity   string `json:"entity" gorm:"type:text;not null;index"` // product, customer, order, ...
	EntityID string `json:"entity_id" gorm:"type:text;index"`

	// Change tracking
	OldValue datatypes.JSON `json:"old_value,omitempty" gorm:"type:jsonb"`
	NewValue datatypes.JSON `json:"new_value,omitempty" gorm:"type:jsonb"`

	Description string `json:"description,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Entry is what callers hand to Record. Old and New are serialized to JSON.
type Entry struct {
	ActorID     *uuid.UUID
	ActorRole   string
	Action      string
	Entity      string
	EntityID    string
	Old         interface{}
	New         interface{}
	Description string
}

// AuditFilter represents filters for querying audit logs
type AuditFilter struct {
	ActorID   *uuid.UUID
	Action    string
	Entity    string
	EntityID  string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// AuditLogResponse represents paginated audit log response
type AuditLogResponse struct {
	Logs       []AuditLog `json:"logs"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
