package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is a customer order with its line items and delivery assignment
type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderNumber string    `gorm:"type:text;uniqueIndex;not null" json:"order_number"`

	CustomerID uuid.UUID   `gorm:"type:uuid;not null;index" json:"customer_id"`
	Status     OrderStatus `gorm:"type:text;not null;default:'pending';index" json:"status"`

	// TotalAmount is always the sum of the items' TotalPrice
	TotalAmount  float64    `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	ProfitAmount float64    `gorm:"type:decimal(12,2);not null;default:0" json:"profit_amount"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`

	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Nested reads
	Customer   *Customer            `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items      []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Assignment *DeliveryAssignment  `gorm:"foreignKey:OrderID" json:"assignment,omitempty"`
	History    []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"`

	// NextStatuses lists where the status may go from here; empty once terminal
	NextStatuses []OrderStatus `gorm:"-" json:"next_statuses"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *Order) AfterFind(tx *gorm.DB) error {
	o.NextStatuses = o.Status.AllowedTransitions()
	return nil
}

// OrderItem is one product line of an order
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`

	Quantity   int     `gorm:"type:integer;not null" json:"quantity"`
	UnitPrice  float64 `gorm:"type:decimal(12,2);not null" json:"unit_price"`  // snapshot at order time
	TotalPrice float64 `gorm:"type:decimal(12,2);not null" json:"total_price"` // Quantity * UnitPrice

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// DeliveryAssignment binds one order to one delivery person
type DeliveryAssignment struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OrderID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	DeliveryPersonID uuid.UUID  `gorm:"type:uuid;not null;index" json:"delivery_person_id"`
	AssignedBy       *uuid.UUID `gorm:"type:uuid" json:"assigned_by,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	DeliveryPerson *DeliveryPerson `gorm:"foreignKey:DeliveryPersonID" json:"delivery_person,omitempty"`
}

func (DeliveryAssignment) TableName() string {
	return "delivery_assignments"
}

func (a *DeliveryAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// OrderStatusHistory is an append-only record of one status change
type OrderStatusHistory struct {
	ID                   uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	OrderID              uuid.UUID   `gorm:"type:uuid;not null;index" json:"order_id"`
	DeliveryAssignmentID *uuid.UUID  `gorm:"type:uuid" json:"delivery_assignment_id,omitempty"`
	Status               OrderStatus `gorm:"type:text;not null" json:"status"`
	Comments             *string     `gorm:"type:text" json:"comments,omitempty"`
	UpdatedBy            *uuid.UUID  `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt            time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

func (h *OrderStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// OrderLine is one requested (product, quantity) pair
type OrderLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerID       uuid.UUID   `json:"customer_id" validate:"required"`
	DeliveryPersonID uuid.UUID   `json:"delivery_person_id" validate:"required"`
	Items            []OrderLine `json:"items"`
	DeliveryDate     *time.Time  `json:"delivery_date,omitempty"`
	ProfitAmount     float64     `json:"profit_amount,omitempty" validate:"gte=0"`
}

// UpdateOrderRequest edits the fields that are not owned by the lifecycle.
type UpdateOrderRequest struct {
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	ProfitAmount *float64   `json:"profit_amount,omitempty" validate:"omitempty,gte=0"`
}

type UpdateStatusRequest struct {
	Status   string  `json:"status"`
	Comments *string `json:"comments,omitempty"`
}

type ReassignRequest struct {
	DeliveryPersonID uuid.UUID `json:"delivery_person_id" validate:"required"`
}

type OrderFilter struct {
	Status   *OrderStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type OrderListResponse struct {
	Orders     []Order `json:"orders"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// RoundMoney rounds an amount to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineTotal returns quantity x unitPrice rounded to cents.
func LineTotal(quantity int, unitPrice float64) float64 {
	return RoundMoney(float64(quantity) * unitPrice)
}

// SumItems returns the order total for the given items.
func SumItems(items []OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.TotalPrice
	}
	return RoundMoney(total)
}
