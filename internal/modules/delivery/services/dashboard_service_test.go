package services

import (
	"testing"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)

	empty, err := f.dashboard.Stats(f.ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(empty.OrdersByStatus) != len(models.AllStatuses) {
		t.Errorf("statuses = %d, want %d zero-filled", len(empty.OrdersByStatus), len(models.AllStatuses))
	}
	if empty.TotalOrders != 0 || empty.TotalRevenue != 0 {
		t.Errorf("empty stats = %+v", empty)
	}

	rice := f.product("Rice", 10.1, 3)
	f.product("Oil", 2, 40)
	c := f.customer("Toko")
	f.customer("Warung")
	p, _ := f.person("Budi")
	idle, _ := f.person("Sari")
	off := false
	if _, err := f.persons.UpdateDeliveryPerson(f.ctx, admin, idle.ID, &models.UpdateDeliveryPersonRequest{IsActive: &off}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	f.order(c, p, line(rice, 1))
	o := f.order(c, p, line(rice, 2))
	if _, err := f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: "in_transit"}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	stats, err := f.dashboard.Stats(f.ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	checks := []struct {
		name      string
		got, want int64
	}{
		{"products", stats.TotalProducts, 2},
		{"customers", stats.TotalCustomers, 2},
		{"active delivery persons", stats.ActiveDeliveryPersons, 1},
		{"orders", stats.TotalOrders, 2},
		{"assigned", stats.OrdersByStatus[models.StatusAssigned], 1},
		{"in transit", stats.OrdersByStatus[models.StatusInTransit], 1},
		{"delivered", stats.OrdersByStatus[models.StatusDelivered], 0},
		{"low stock", stats.LowStockProducts, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if stats.TotalRevenue != 30.3 {
		t.Errorf("revenue = %v, want 30.3", stats.TotalRevenue)
	}
	if stats.LowStockThreshold != 5 {
		t.Errorf("threshold = %d", stats.LowStockThreshold)
	}
}

func TestDashboardThresholdDefault(t *testing.T) {
	svc := NewDashboardService(repositories.NewDashboardRepo(nil), -1)
	if svc.lowStockThreshold != defaultLowStockThreshold {
		t.Errorf("threshold = %d", svc.lowStockThreshold)
	}
}
