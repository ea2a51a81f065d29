package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryPerson carries orders to customers. UserID links the record to a
// login so the person can see their own assignments.
type DeliveryPerson struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	Name           string  `gorm:"type:text;not null" json:"name"`
	ContactNumber  string  `gorm:"type:text;not null" json:"contact_number"`
	WhatsappNumber *string `gorm:"type:text" json:"whatsapp_number,omitempty"`
	Address        *string `gorm:"type:text" json:"address,omitempty"`
	IsActive       bool    `gorm:"type:boolean;not null;default:true" json:"is_active"`

	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DeliveryPerson) TableName() string {
	return "delivery_persons"
}

func (d *DeliveryPerson) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type CreateDeliveryPersonRequest struct {
	Name           string     `json:"name" validate:"required"`
	ContactNumber  string     `json:"contact_number" validate:"required"`
	WhatsappNumber *string    `json:"whatsapp_number,omitempty"`
	Address        *string    `json:"address,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"` // defaults to true
	UserID         *uuid.UUID `json:"user_id,omitempty"`
}

type UpdateDeliveryPersonRequest struct {
	Name           *string    `json:"name,omitempty" validate:"omitempty,min=1"`
	ContactNumber  *string    `json:"contact_number,omitempty" validate:"omitempty,min=1"`
	WhatsappNumber *string    `json:"whatsapp_number,omitempty"`
	Address        *string    `json:"address,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
}

type DeliveryPersonFilter struct {
	SearchTerm string
	IsActive   *bool
	Page       int
	PageSize   int
}

type DeliveryPersonListResponse struct {
	DeliveryPersons []DeliveryPerson `json:"delivery_persons"`
	Total           int64            `json:"total"`
	Page            int              `json:"page"`
	PageSize        int              `json:"page_size"`
	TotalPages      int              `json:"total_pages"`
}
