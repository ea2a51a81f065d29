package services

import (
	"context"
	"fmt"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
)

const defaultLowStockThreshold = 5

type DashboardService struct {
	dashboardRepo     repositories.DashboardRepo
	lowStockThreshold int
}

func NewDashboardService(dashboardRepo repositories.DashboardRepo, lowStockThreshold int) *DashboardService {
	if lowStockThreshold < 0 {
		lowStockThreshold = defaultLowStockThreshold
	}
	return &DashboardService{
		dashboardRepo:     dashboardRepo,
		lowStockThreshold: lowStockThreshold,
	}
}

// Stats builds the admin overview. Every status appears in OrdersByStatus,
// zero when no order has it.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		OrdersByStatus:    make(map[models.OrderStatus]int64, len(models.AllStatuses)),
		LowStockThreshold: s.lowStockThreshold,
	}

	var err error
	if stats.TotalProducts, err = s.dashboardRepo.CountProducts(ctx); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if stats.TotalCustomers, err = s.dashboardRepo.CountCustomers(ctx); err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	if stats.ActiveDeliveryPersons, err = s.dashboardRepo.CountActiveDeliveryPersons(ctx); err != nil {
		return nil, fmt.Errorf("failed to count delivery persons: %w", err)
	}
	if stats.TotalOrders, err = s.dashboardRepo.CountOrders(ctx); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	totals, err := s.dashboardRepo.SumOrderTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum order totals: %w", err)
	}
	stats.TotalRevenue = models.RoundMoney(totals.Revenue)
	stats.TotalProfit = models.RoundMoney(totals.Profit)

	for _, st := range models.AllStatuses {
		stats.OrdersByStatus[st] = 0
	}
	counts, err := s.dashboardRepo.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, c := range counts {
		stats.OrdersByStatus[c.Status] = c.Count
	}

	if stats.LowStockProducts, err = s.dashboardRepo.CountLowStock(ctx, s.lowStockThreshold); err != nil {
		return nil, fmt.Errorf("failed to count low stock products: %w", err)
	}

	return stats, nil
}
