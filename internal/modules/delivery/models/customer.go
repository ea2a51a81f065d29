package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a shop that receives deliveries
type Customer struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	Name           string  `gorm:"type:text;not null" json:"name"`
	ShopName       string  `gorm:"type:text;not null" json:"shop_name"`
	ContactNumber  string  `gorm:"type:text;not null" json:"contact_number"`
	WhatsappNumber *string `gorm:"type:text" json:"whatsapp_number,omitempty"`
	Address        *string `gorm:"type:text" json:"address,omitempty"`

	// Map pin for the delivery route
	Latitude  *float64 `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`

	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CreateCustomerRequest struct {
	Name           string   `json:"name" validate:"required"`
	ShopName       string   `json:"shop_name" validate:"required"`
	ContactNumber  string   `json:"contact_number" validate:"required"`
	WhatsappNumber *string  `json:"whatsapp_number,omitempty"`
	Address        *string  `json:"address,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

type UpdateCustomerRequest struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	ShopName       *string  `json:"shop_name,omitempty" validate:"omitempty,min=1"`
	ContactNumber  *string  `json:"contact_number,omitempty" validate:"omitempty,min=1"`
	WhatsappNumber *string  `json:"whatsapp_number,omitempty"`
	Address        *string  `json:"address,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

type CustomerFilter struct {
	SearchTerm string // name, shop_name, contact_number
	Page       int
	PageSize   int
}

type CustomerListResponse struct {
	Customers  []Customer `json:"customers"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
