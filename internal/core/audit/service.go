package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxPageSize = 200

// Service provides audit logging functionality
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a new audit service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Log creates a new audit log entry
func (s *Service) Log(ctx context.Context, entry *AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// Record writes an entry and only logs on failure. An audit problem never
// fails the operation being audited.
func (s *Service) Record(ctx context.Context, e Entry) {
	if s == nil {
		return
	}

	oldJSON, err := toJSON(e.Old)
	if err != nil {
		log.Warn().Err(err).Str("entity", e.Entity).Msg("⚠️ failed to serialize audit old value")
	}
	newJSON, err := toJSON(e.New)
	if err != nil {
		log.Warn().Err(err).Str("entity", e.Entity).Msg("⚠️ failed to serialize audit new value")
	}

	err = s.Log(ctx, &AuditLog{
		ActorID:     e.ActorID,
		ActorRole:   e.ActorRole,
		Action:      e.Action,
		Entity:      e.Entity,
		EntityID:    e.EntityID,
		OldValue:    oldJSON,
		NewValue:    newJSON,
		Description: e.Description,
	})
	if err != nil {
		log.Error().Err(err).
			Str("action", e.Action).
			Str("entity", e.Entity).
			Str("entity_id", e.EntityID).
			Msg("❌ audit write failed")
	}
}

// GetLogs retrieves audit logs with filtering
func (s *Service) GetLogs(ctx context.Context, filter AuditFilter) (*AuditLogResponse, error) {
	query := s.db.WithContext(ctx).Model(&AuditLog{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Entity != "" {
		query = query.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	offset := (filter.Page - 1) * filter.PageSize

	var logs []AuditLog
	if err := query.
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}

	totalPages := int(totalCount) / filter.PageSize
	if int(totalCount)%filter.PageSize > 0 {
		totalPages++
	}

	return &AuditLogResponse{
		Logs:       logs,
		TotalCount: totalCount,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// DeleteOldLogs removes entries older than daysToKeep days.
func (s *Service) DeleteOldLogs(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep < 1 {
		return 0, fmt.Errorf("daysToKeep must be at least 1")
	}

	cutoff := s.now().AddDate(0, 0, -daysToKeep)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", result.Error)
	}

	log.Info().
		Int64("deleted", result.RowsAffected).
		Int("days_to_keep", daysToKeep).
		Msg("🧹 Old audit logs purged")
	return result.RowsAffected, nil
}

func toJSON(value interface{}) (datatypes.JSON, error) {
	if value == nil {
		return nil, nil
	}

	bytes, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return datatypes.JSON(bytes), nil
}
