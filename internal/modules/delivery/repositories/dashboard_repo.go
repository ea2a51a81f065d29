package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
)

// StatusCount is one row of the orders-per-status aggregate.
type StatusCount struct {
	Status models.OrderStatus
	Count  int64
}

// OrderTotals holds summed revenue and profit over live orders.
type OrderTotals struct {
	Revenue float64
	Profit  float64
}

type DashboardRepo interface {
	CountProducts(ctx context.Context) (int64, error)
	CountCustomers(ctx context.Context) (int64, error)
	CountActiveDeliveryPersons(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
	SumOrderTotals(ctx context.Context) (OrderTotals, error)
	CountOrdersByStatus(ctx context.Context) ([]StatusCount, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepo {
	return &dashboardRepo{db: db}
}

func (r *dashboardRepo) count(ctx context.Context, model interface{}, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(model).Scopes(scopes...).Count(&n).Error
	return n, err
}

func (r *dashboardRepo) CountProducts(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Product{})
}

func (r *dashboardRepo) CountCustomers(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Customer{})
}

func (r *dashboardRepo) CountActiveDeliveryPersons(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.DeliveryPerson{}, func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true)
	})
}

func (r *dashboardRepo) CountOrders(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Order{})
}

func (r *dashboardRepo) SumOrderTotals(ctx context.Context) (OrderTotals, error) {
	var totals OrderTotals
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COALESCE(SUM(profit_amount), 0) AS profit").
		Scan(&totals).Error
	return totals, err
}

func (r *dashboardRepo) CountOrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *dashboardRepo) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	return r.count(ctx, &models.Product{}, func(db *gorm.DB) *gorm.DB {
		return db.Where("quantity <= ?", threshold)
	})
}
