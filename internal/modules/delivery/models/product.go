package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a stock item that can be put on an order
type Product struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	Name        string  `gorm:"type:text;not null" json:"name"`
	Company     string  `gorm:"type:text" json:"company"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	SKU         *string `gorm:"type:text;uniqueIndex" json:"sku,omitempty"`
	Unit        string  `gorm:"type:text;not null" json:"unit"`

	// Pricing. Orders snapshot SellingPrice into OrderItem.UnitPrice.
	SellingPrice   float64  `gorm:"type:decimal(12,2);not null;default:0" json:"selling_price"`
	WholesalePrice *float64 `gorm:"type:decimal(12,2)" json:"wholesale_price,omitempty"`
	RetailPrice    *float64 `gorm:"type:decimal(12,2)" json:"retail_price,omitempty"`

	// Recorded stock
	Quantity int `gorm:"type:integer;not null;default:0" json:"quantity"`

	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// BeforeCreate sets UUID before creating
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasStock reports whether qty units can be taken from the recorded stock
func (p *Product) HasStock(qty int) bool {
	return qty <= p.Quantity
}

type CreateProductRequest struct {
	Name           string   `json:"name" validate:"required"`
	Company        string   `json:"company"`
	Description    string   `json:"description,omitempty"`
	SKU            *string  `json:"sku,omitempty"`
	Unit           string   `json:"unit" validate:"required"`
	SellingPrice   float64  `json:"selling_price" validate:"gte=0"`
	WholesalePrice *float64 `json:"wholesale_price,omitempty" validate:"omitempty,gte=0"`
	RetailPrice    *float64 `json:"retail_price,omitempty" validate:"omitempty,gte=0"`
	Quantity       int      `json:"quantity" validate:"gte=0"`
}

// UpdateProductRequest uses pointers so omitted fields stay untouched
type UpdateProductRequest struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Company        *string  `json:"company,omitempty"`
	Description    *string  `json:"description,omitempty"`
	SKU            *string  `json:"sku,omitempty"`
	Unit           *string  `json:"unit,omitempty" validate:"omitempty,min=1"`
	SellingPrice   *float64 `json:"selling_price,omitempty" validate:"omitempty,gte=0"`
	WholesalePrice *float64 `json:"wholesale_price,omitempty" validate:"omitempty,gte=0"`
	RetailPrice    *float64 `json:"retail_price,omitempty" validate:"omitempty,gte=0"`
	Quantity       *int     `json:"quantity,omitempty" validate:"omitempty,gte=0"`
}

type ProductFilter struct {
	SearchTerm string // name, company, sku
	LowStock   *int   // quantity <= value
	Page       int
	PageSize   int
}

type ProductListResponse struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
