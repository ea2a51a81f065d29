package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
)

var (
	// ErrStatusConflict means the order's status changed between read and write.
	ErrStatusConflict = errors.New("order status was changed concurrently")
	// ErrStockConflict means a guarded stock decrement found too little stock.
	ErrStockConflict = errors.New("insufficient stock")
)

// StockShortage names the product whose guarded decrement failed.
type StockShortage struct {
	ProductID uuid.UUID
}

func (e *StockShortage) Error() string {
	return "insufficient stock for product " + e.ProductID.String()
}

func (e *StockShortage) Unwrap() error { return ErrStockConflict }

type OrderRepo interface {
	// CreateWithAssignment writes the order, its items and its assignment,
	// optionally decrements stock, and moves the order from pending to
	// assigned, all in one transaction.
	CreateWithAssignment(ctx context.Context, order *models.Order, items []models.OrderItem, assignment *models.DeliveryAssignment, decrementStock bool) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetDetailed(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListDetailed(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	ListByDeliveryPerson(ctx context.Context, deliveryPersonID uuid.UUID, status *models.OrderStatus) ([]models.Order, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]models.Order, error)
	UpdateDetails(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error

	// TransitionStatus compare-and-sets the status from -> to and appends
	// history in one transaction. The history row's assignment id is filled
	// from the order's current assignment.
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus, history *models.OrderStatusHistory) error

	GetAssignment(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error)
	// Reassign points the order's single assignment row at a new delivery
	// person, guarded by a compare-and-set on the status the caller read.
	// A pending order moves to assigned and gets the history row. Returns
	// ErrStatusConflict when the status moved on in the meantime.
	Reassign(ctx context.Context, assignment *models.DeliveryAssignment, from models.OrderStatus, history *models.OrderStatusHistory) error
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepo {
	return &orderRepo{db: db}
}

func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// withDetails preloads customer, assignment, items and history. Soft-deleted
// customers, people and products still resolve so old orders stay readable.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer", unscoped).
		Preload("Assignment").
		Preload("Assignment.DeliveryPerson", unscoped).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product", unscoped).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") })
}

func (r *orderRepo) CreateWithAssignment(ctx context.Context, order *models.Order, items []models.OrderItem, assignment *models.DeliveryAssignment, decrementStock bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order.Status = models.StatusPending
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}

		assignment.OrderID = order.ID
		if err := tx.Omit(clause.Associations).Create(assignment).Error; err != nil {
			return err
		}

		if decrementStock {
			for _, it := range items {
				res := tx.Model(&models.Product{}).
					Where("id = ? AND quantity >= ?", it.ProductID, it.Quantity).
					UpdateColumn("quantity", gorm.Expr("quantity - ?", it.Quantity))
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return &StockShortage{ProductID: it.ProductID}
				}
			}
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.StatusPending).
			Update("status", models.StatusAssigned)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}

		order.Status = models.StatusAssigned
		order.Items = items
		order.Assignment = assignment
		return nil
	})
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) GetDetailed(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := withDetails(r.db.WithContext(ctx)).First(&order, "orders.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) ListDetailed(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := withDetails(paginate(query, filter.Page, filter.PageSize)).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) ListByDeliveryPerson(ctx context.Context, deliveryPersonID uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order

	query := r.db.WithContext(ctx).
		Joins("JOIN delivery_assignments ON delivery_assignments.order_id = orders.id").
		Where("delivery_assignments.delivery_person_id = ?", deliveryPersonID)
	if status != nil {
		query = query.Where("orders.status = ?", *status)
	}

	err := withDetails(query).
		Order("orders.created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListInRange(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := withDetails(r.db.WithContext(ctx)).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// UpdateDetails writes the editable order fields. Status and totals are
// owned by the lifecycle and are never written here.
func (r *orderRepo) UpdateDetails(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"delivery_date": order.DeliveryDate,
			"profit_amount": order.ProfitAmount,
		}).Error
}

func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepo) TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus, history *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}

		var assignment models.DeliveryAssignment
		err := tx.Where("order_id = ?", orderID).First(&assignment).Error
		switch {
		case err == nil:
			history.DeliveryAssignmentID = &assignment.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			history.DeliveryAssignmentID = nil
		default:
			return err
		}

		history.OrderID = orderID
		history.Status = to
		return tx.Create(history).Error
	})
}

func (r *orderRepo) GetAssignment(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error) {
	var assignment models.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Preload("DeliveryPerson", unscoped).
		Where("order_id = ?", orderID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *orderRepo) Reassign(ctx context.Context, assignment *models.DeliveryAssignment, from models.OrderStatus, history *models.OrderStatusHistory) error {
	to := from
	if from == models.StatusPending {
		to = models.StatusAssigned
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", assignment.OrderID, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}

		if err := saveAssignment(tx, assignment); err != nil {
			return err
		}
		if to == from {
			return nil
		}

		history.OrderID = assignment.OrderID
		history.Status = to
		history.DeliveryAssignmentID = &assignment.ID
		return tx.Create(history).Error
	})
}

// saveAssignment creates the order's assignment or replaces its delivery
// person, keeping a single row per order.
func saveAssignment(tx *gorm.DB, assignment *models.DeliveryAssignment) error {
	var existing models.DeliveryAssignment
	err := tx.Where("order_id = ?", assignment.OrderID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Omit(clause.Associations).Create(assignment).Error
	}
	if err != nil {
		return err
	}

	existing.DeliveryPersonID = assignment.DeliveryPersonID
	existing.AssignedBy = assignment.AssignedBy
	if err := tx.Omit(clause.Associations).Save(&existing).Error; err != nil {
		return err
	}
	*assignment = existing
	return nil
}

func (r *orderRepo) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&history).Error
	return history, err
}
