package services

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
)

func TestCreateOrderAssignsAtomically(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice 5kg", 10, 100)
	b := f.product("Cooking oil", 5, 50)
	c := f.customer("Toko Maju")
	p, _ := f.person("Budi")

	o := f.order(c, p, line(a, 2), line(b, 3))

	if o.TotalAmount != 35 {
		t.Errorf("TotalAmount = %v, want 35", o.TotalAmount)
	}
	if o.Status != models.StatusAssigned {
		t.Errorf("Status = %s, want assigned", o.Status)
	}
	if !strings.HasPrefix(o.OrderNumber, "ORD-") {
		t.Errorf("OrderNumber = %q", o.OrderNumber)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(o.Items))
	}
	if o.Customer == nil || o.Customer.ID != c.ID {
		t.Error("customer not preloaded")
	}
	if o.Assignment == nil || o.Assignment.DeliveryPersonID != p.ID {
		t.Fatal("assignment missing")
	}
	if o.Assignment.DeliveryPerson == nil || o.Assignment.DeliveryPerson.Name != "Budi" {
		t.Error("delivery person not preloaded")
	}

	if n := f.count(&models.DeliveryAssignment{}); n != 1 {
		t.Errorf("assignments = %d, want 1", n)
	}
	if n := f.count(&models.OrderStatusHistory{}); n != 0 {
		t.Errorf("history rows = %d, want 0", n)
	}

	// Stock is untouched unless decrement is enabled.
	got, _ := f.products.GetProduct(f.ctx, a.ID)
	if got.Quantity != 100 {
		t.Errorf("stock = %d, want 100", got.Quantity)
	}
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	a := f.product("Sugar", 7.15, 10)
	c := f.customer("Warung")
	p, _ := f.person("Sari")

	o := f.order(c, p, line(a, 3))

	price := 99.0
	if _, err := f.products.UpdateProduct(f.ctx, admin, a.ID, &models.UpdateProductRequest{SellingPrice: &price}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	reloaded, err := f.orders.GetOrder(f.ctx, admin, o.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if reloaded.Items[0].UnitPrice != 7.15 || reloaded.Items[0].TotalPrice != 21.45 {
		t.Errorf("item = %v x %v", reloaded.Items[0].UnitPrice, reloaded.Items[0].TotalPrice)
	}
	if reloaded.TotalAmount != 21.45 {
		t.Errorf("TotalAmount = %v", reloaded.TotalAmount)
	}
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	f := newFixture(t)
	a := f.product("Flour", 2, 5)
	c := f.customer("Toko")
	p, _ := f.person("Andi")

	o := f.order(c, p, line(a, 2), line(a, 3))
	if len(o.Items) != 1 || o.Items[0].Quantity != 5 {
		t.Fatalf("items = %+v, want one line of 5", o.Items)
	}

	// 3 + 3 exceeds the 5 in stock once merged.
	_, err := f.orders.CreateOrder(f.ctx, admin, &models.CreateOrderRequest{
		CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, 3), line(a, 3)},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestMergeLines(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	tests := []struct {
		name    string
		lines   []models.OrderLine
		want    []int
		wantErr error
	}{
		{"distinct products", []models.OrderLine{{ProductID: a, Quantity: 1}, {ProductID: b, Quantity: 2}}, []int{1, 2}, nil},
		{"duplicates summed in first-seen order", []models.OrderLine{{ProductID: b, Quantity: 2}, {ProductID: a, Quantity: 1}, {ProductID: b, Quantity: 4}}, []int{6, 1}, nil},
		{"sum at column limit", []models.OrderLine{{ProductID: a, Quantity: math.MaxInt32 - 1}, {ProductID: a, Quantity: 1}}, []int{math.MaxInt32}, nil},
		{"sum past column limit", []models.OrderLine{{ProductID: a, Quantity: math.MaxInt32}, {ProductID: a, Quantity: 1}}, nil, ErrInvalidQuantity},
		{"sum wraps int", []models.OrderLine{{ProductID: a, Quantity: math.MaxInt}, {ProductID: a, Quantity: 2}}, nil, ErrInvalidQuantity},
		{"negative line hidden by merge", []models.OrderLine{{ProductID: a, Quantity: 5}, {ProductID: a, Quantity: -3}}, nil, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mergeLines(tt.lines)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("mergeLines() error = %v, want %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("mergeLines() = %+v, want quantities %v", got, tt.want)
			}
			for i, q := range tt.want {
				if got[i].Quantity != q {
					t.Errorf("line %d quantity = %d, want %d", i, got[i].Quantity, q)
				}
			}
		})
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	a := f.product("Salt", 1, 3)
	c := f.customer("Toko")
	p, _ := f.person("Joko")

	inactive := false
	idle, err := f.persons.CreateDeliveryPerson(f.ctx, admin, &models.CreateDeliveryPersonRequest{
		Name: "Idle", ContactNumber: "0", IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("create inactive person: %v", err)
	}

	tests := []struct {
		name  string
		actor Actor
		req   models.CreateOrderRequest
		want  error
	}{
		{"no items", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: p.ID}, ErrEmptyItems},
		{"zero quantity", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, 0)}}, ErrInvalidQuantity},
		{"negative quantity", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, -1)}}, ErrInvalidQuantity},
		{"missing customer id", admin, models.CreateOrderRequest{DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, 1)}}, ErrValidation},
		{"unknown customer", admin, models.CreateOrderRequest{CustomerID: uuid.New(), DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, 1)}}, ErrCustomerNotFound},
		{"unknown delivery person", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: uuid.New(), Items: []models.OrderLine{line(a, 1)}}, ErrDeliveryPersonNotFound},
		{"inactive delivery person", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: idle.ID, Items: []models.OrderLine{line(a, 1)}}, ErrDeliveryPersonInactive},
		{"unknown product", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{{ProductID: uuid.New(), Quantity: 1}}}, ErrProductNotFound},
		{"insufficient stock", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, 4)}}, ErrInsufficientStock},
		{"merged quantity overflows", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, math.MaxInt), line(a, 2)}}, ErrInvalidQuantity},
		{"quantity beyond column range", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, math.MaxInt32+1)}}, ErrInvalidQuantity},
		{"negative profit", admin, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, 1)}, ProfitAmount: -1}, ErrValidation},
		{"delivery person cannot create", Actor{UserID: uuid.New(), Role: auth.RoleDeliveryPerson}, models.CreateOrderRequest{CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, 1)}}, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.orders.CreateOrder(f.ctx, tt.actor, &req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	for name, model := range map[string]interface{}{
		"orders":      &models.Order{},
		"items":       &models.OrderItem{},
		"assignments": &models.DeliveryAssignment{},
	} {
		if n := f.count(model); n != 0 {
			t.Errorf("%s = %d after rejected creates, want 0", name, n)
		}
	}
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	f := newFixture(t, withDecrementStock())
	a := f.product("Rice", 10, 5)
	c := f.customer("Toko")
	p, _ := f.person("Budi")

	f.order(c, p, line(a, 3))

	got, _ := f.products.GetProduct(f.ctx, a.ID)
	if got.Quantity != 2 {
		t.Errorf("stock = %d, want 2", got.Quantity)
	}
}

// staleStock reports more stock than the table holds, as if another order
// took it between validation and write.
type staleStock struct {
	repositories.ProductRepo
}

func (s staleStock) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	products, err := s.ProductRepo.GetByIDs(ctx, ids)
	for i := range products {
		products[i].Quantity = 1000
	}
	return products, err
}

func TestCreateOrderRollsBackOnStockRace(t *testing.T) {
	f := newFixture(t, withDecrementStock(), withProductRepo(func(r repositories.ProductRepo) repositories.ProductRepo {
		return staleStock{r}
	}))
	a := f.product("Rice", 10, 100)
	b := f.product("Oil", 5, 1)
	c := f.customer("Toko")
	p, _ := f.person("Budi")

	_, err := f.orders.CreateOrder(f.ctx, admin, &models.CreateOrderRequest{
		CustomerID: c.ID, DeliveryPersonID: p.ID, Items: []models.OrderLine{line(a, 10), line(b, 2)},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if !strings.Contains(err.Error(), "Oil") {
		t.Errorf("error should name the product: %v", err)
	}

	if n := f.count(&models.Order{}); n != 0 {
		t.Errorf("orders = %d, want 0", n)
	}
	if n := f.count(&models.OrderItem{}); n != 0 {
		t.Errorf("items = %d, want 0", n)
	}
	got, _ := f.products.GetProduct(f.ctx, a.ID)
	if got.Quantity != 100 {
		t.Errorf("rice stock = %d, want 100 after rollback", got.Quantity)
	}
}

func TestUpdateStatusWritesOneHistoryRow(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	c := f.customer("Toko")
	p, _ := f.person("Budi")
	o := f.order(c, p, line(a, 1))

	note := "left the depot"
	updated, err := f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: "in_transit", Comments: &note})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != models.StatusInTransit {
		t.Errorf("Status = %s", updated.Status)
	}

	history, err := f.orders.GetHistory(f.ctx, admin, o.ID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d rows, want 1", len(history))
	}
	h := history[0]
	if h.Status != models.StatusInTransit || h.Comments == nil || *h.Comments != note {
		t.Errorf("history row = %+v", h)
	}
	if h.DeliveryAssignmentID == nil || *h.DeliveryAssignmentID != o.Assignment.ID {
		t.Error("history row not linked to the assignment")
	}
	if h.UpdatedBy == nil || *h.UpdatedBy != admin.UserID {
		t.Error("history row missing actor")
	}

	// Same status again is rejected without another row.
	_, err = f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: "in_transit"})
	if !errors.Is(err, ErrStatusUnchanged) || !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrStatusUnchanged as a validation error", err)
	}
	if n := f.count(&models.OrderStatusHistory{}); n != 1 {
		t.Errorf("history rows = %d, want 1", n)
	}

	if _, err := f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: "delivered"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	history, _ = f.orders.GetHistory(f.ctx, admin, o.ID)
	if len(history) != 2 || history[0].Status != models.StatusDelivered {
		t.Errorf("history newest first = %+v", history)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []string
		next string
		want error
	}{
		{"assigned to cancelled", nil, "cancelled", nil},
		{"assigned to issues", nil, "issues", nil},
		{"issues back to assigned", []string{"issues"}, "assigned", nil},
		{"issues to in transit", []string{"issues"}, "in_transit", nil},
		{"assigned to delivered skips transit", nil, "delivered", ErrInvalidTransition},
		{"in transit cannot be cancelled", []string{"in_transit"}, "cancelled", ErrInvalidTransition},
		{"delivered is terminal", []string{"in_transit", "delivered"}, "issues", ErrInvalidTransition},
		{"cancelled is terminal", []string{"cancelled"}, "assigned", ErrInvalidTransition},
		{"back to pending", nil, "pending", ErrInvalidTransition},
		{"unknown status", nil, "lost", ErrInvalidStatus},
		{"unchanged", nil, "assigned", ErrStatusUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.product("Rice", 10, 100)
			o := f.order(f.customer("Toko"), mustPerson(f), line(a, 1))

			for _, st := range tt.path {
				if _, err := f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: st}); err != nil {
					t.Fatalf("setup %s: %v", st, err)
				}
			}
			before := f.count(&models.OrderStatusHistory{})

			_, err := f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: tt.next})
			if tt.want == nil && err != nil {
				t.Fatalf("err = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want != nil && f.count(&models.OrderStatusHistory{}) != before {
				t.Error("rejected update wrote history")
			}
		})
	}
}

func TestOrderReportsNextStatuses(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	o := f.order(f.customer("Toko"), mustPerson(f), line(a, 1))

	want := []models.OrderStatus{models.StatusInTransit, models.StatusIssues, models.StatusCancelled}
	if !slices.Equal(o.NextStatuses, want) {
		t.Errorf("assigned next = %v, want %v", o.NextStatuses, want)
	}

	for _, st := range []string{"in_transit", "delivered"} {
		var err error
		if o, err = f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: st}); err != nil {
			t.Fatalf("UpdateStatus %s: %v", st, err)
		}
	}
	if len(o.NextStatuses) != 0 {
		t.Errorf("delivered next = %v, want none", o.NextStatuses)
	}

	_, err := f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: "issues"})
	if !errors.Is(err, ErrInvalidTransition) || !strings.Contains(err.Error(), "can no longer change") {
		t.Errorf("err = %v, want terminal ErrInvalidTransition", err)
	}

	orders, _, err := f.orderRepo.ListDetailed(f.ctx, models.OrderFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListDetailed: %v", err)
	}
	if len(orders) != 1 || orders[0].NextStatuses == nil || len(orders[0].NextStatuses) != 0 {
		t.Errorf("listed next = %+v", orders)
	}
}

func mustPerson(f *fixture) *models.DeliveryPerson {
	p, _ := f.person("Driver " + uuid.NewString()[:4])
	return p
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.UpdateStatus(f.ctx, admin, uuid.New(), &models.UpdateStatusRequest{Status: "in_transit"})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestUpdateStatusRejectsStaleWrite(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	o := f.order(f.customer("Toko"), mustPerson(f), line(a, 1))

	// Another writer moved the order after it was read.
	err := f.orderRepo.TransitionStatus(f.ctx, o.ID, models.StatusInTransit, models.StatusDelivered, &models.OrderStatusHistory{})
	if !errors.Is(err, repositories.ErrStatusConflict) {
		t.Fatalf("err = %v, want ErrStatusConflict", err)
	}
	if n := f.count(&models.OrderStatusHistory{}); n != 0 {
		t.Errorf("history rows = %d, want 0", n)
	}
}

func TestDeliveryPersonPermissions(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	c := f.customer("Toko")
	mine, me := f.person("Budi")
	_, other := f.person("Sari")
	o := f.order(c, mine, line(a, 1))

	if _, err := f.orders.UpdateStatus(f.ctx, other, o.ID, &models.UpdateStatusRequest{Status: "in_transit"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("other person update err = %v, want forbidden", err)
	}
	if _, err := f.orders.GetOrder(f.ctx, other, o.ID); !errors.Is(err, ErrNotAssigned) {
		t.Errorf("other person read err = %v, want ErrNotAssigned", err)
	}
	if _, err := f.orders.UpdateStatus(f.ctx, me, o.ID, &models.UpdateStatusRequest{Status: "cancelled"}); !errors.Is(err, ErrCannotCancel) {
		t.Errorf("cancel err = %v, want ErrCannotCancel", err)
	}

	updated, err := f.orders.UpdateStatus(f.ctx, me, o.ID, &models.UpdateStatusRequest{Status: "in_transit"})
	if err != nil {
		t.Fatalf("own update: %v", err)
	}
	if updated.Status != models.StatusInTransit {
		t.Errorf("Status = %s", updated.Status)
	}

	history, err := f.orders.GetHistory(f.ctx, me, o.ID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 1 || history[0].UpdatedBy == nil || *history[0].UpdatedBy != me.UserID {
		t.Errorf("history = %+v", history)
	}

	unlinked := Actor{UserID: uuid.New(), Role: auth.RoleDeliveryPerson}
	if _, err := f.orders.ListMyOrders(f.ctx, unlinked, ""); !errors.Is(err, ErrNoDeliveryLogin) {
		t.Errorf("unlinked login err = %v, want ErrNoDeliveryLogin", err)
	}
}

func TestListMyOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	c := f.customer("Toko")
	mine, me := f.person("Budi")
	other, _ := f.person("Sari")

	older := f.order(c, mine, line(a, 1))
	newer := f.order(c, mine, line(a, 2))
	f.order(c, other, line(a, 3))

	if err := f.db.Model(&models.Order{}).Where("id = ?", older.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	orders, err := f.orders.ListMyOrders(f.ctx, me, "")
	if err != nil {
		t.Fatalf("ListMyOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	if orders[0].ID != newer.ID || orders[1].ID != older.ID {
		t.Error("orders not newest first")
	}
	if len(orders[0].Items) != 1 || orders[0].Customer == nil {
		t.Error("nested records not loaded")
	}

	if _, err := f.orders.UpdateStatus(f.ctx, me, newer.ID, &models.UpdateStatusRequest{Status: "in_transit"}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	inTransit, err := f.orders.ListMyOrders(f.ctx, me, "in_transit")
	if err != nil {
		t.Fatalf("ListMyOrders filtered: %v", err)
	}
	if len(inTransit) != 1 || inTransit[0].ID != newer.ID {
		t.Errorf("filtered = %d orders", len(inTransit))
	}

	if _, err := f.orders.ListMyOrders(f.ctx, me, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestListOrdersFilters(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	c := f.customer("Toko")
	p := mustPerson(f)
	for i := 0; i < 3; i++ {
		f.order(c, p, line(a, 1))
	}
	o := f.order(c, p, line(a, 1))
	if _, err := f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: "cancelled"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	resp, err := f.orders.ListOrders(f.ctx, models.OrderFilter{PageSize: 2})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if resp.Total != 4 || len(resp.Orders) != 2 || resp.TotalPages != 2 {
		t.Errorf("total %d, page %d orders, pages %d", resp.Total, len(resp.Orders), resp.TotalPages)
	}

	cancelled := models.StatusCancelled
	resp, err = f.orders.ListOrders(f.ctx, models.OrderFilter{Status: &cancelled})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if resp.Total != 1 || resp.Orders[0].ID != o.ID {
		t.Errorf("cancelled filter total = %d", resp.Total)
	}

	now := time.Now()
	earlier := now.Add(-time.Hour)
	if _, err := f.orders.ListOrders(f.ctx, models.OrderFilter{From: &now, To: &earlier}); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("err = %v, want ErrInvalidDateRange", err)
	}
}

func TestReassign(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	c := f.customer("Toko")
	first, firstActor := f.person("Budi")
	second, secondActor := f.person("Sari")
	o := f.order(c, first, line(a, 1))

	updated, err := f.orders.Reassign(f.ctx, admin, o.ID, &models.ReassignRequest{DeliveryPersonID: second.ID})
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if updated.Assignment == nil || updated.Assignment.DeliveryPersonID != second.ID {
		t.Fatal("assignment not moved")
	}
	if n := f.count(&models.DeliveryAssignment{}); n != 1 {
		t.Errorf("assignments = %d, want 1", n)
	}

	if _, err := f.orders.GetOrder(f.ctx, firstActor, o.ID); !errors.Is(err, ErrNotAssigned) {
		t.Errorf("previous person err = %v, want ErrNotAssigned", err)
	}
	if _, err := f.orders.GetOrder(f.ctx, secondActor, o.ID); err != nil {
		t.Errorf("new person read: %v", err)
	}

	if _, err := f.orders.Reassign(f.ctx, secondActor, o.ID, &models.ReassignRequest{DeliveryPersonID: first.ID}); !errors.Is(err, ErrAdminOnly) {
		t.Errorf("non-admin err = %v, want ErrAdminOnly", err)
	}

	if _, err := f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: "in_transit"}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := f.orders.Reassign(f.ctx, admin, o.ID, &models.ReassignRequest{DeliveryPersonID: first.ID}); !errors.Is(err, ErrNotReassignable) {
		t.Errorf("in transit err = %v, want ErrNotReassignable", err)
	}
}

// departingCourier moves the order to in_transit right after the
// reassignment has read it, as a courier setting off at that moment would.
type departingCourier struct {
	repositories.OrderRepo
}

func (d departingCourier) GetAssignment(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error) {
	assignment, err := d.OrderRepo.GetAssignment(ctx, orderID)
	if err == nil {
		_ = d.OrderRepo.TransitionStatus(ctx, orderID, models.StatusAssigned, models.StatusInTransit, &models.OrderStatusHistory{})
	}
	return assignment, err
}

func TestReassignLosesToConcurrentDeparture(t *testing.T) {
	f := newFixture(t, withOrderRepo(func(r repositories.OrderRepo) repositories.OrderRepo {
		return departingCourier{r}
	}))
	a := f.product("Rice", 10, 100)
	first, _ := f.person("Budi")
	second, _ := f.person("Sari")
	o := f.order(f.customer("Toko"), first, line(a, 1))

	_, err := f.orders.Reassign(f.ctx, admin, o.ID, &models.ReassignRequest{DeliveryPersonID: second.ID})
	if !errors.Is(err, ErrStatusConflict) || !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrStatusConflict", err)
	}

	got, err := f.orderRepo.GetDetailed(f.ctx, o.ID)
	if err != nil {
		t.Fatalf("GetDetailed: %v", err)
	}
	if got.Status != models.StatusInTransit {
		t.Errorf("status = %s, want in_transit", got.Status)
	}
	if got.Assignment == nil || got.Assignment.DeliveryPersonID != first.ID {
		t.Error("in-transit order was handed to another person")
	}
}

func TestReassignPendingOrderWritesHistory(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	first, _ := f.person("Budi")
	second, _ := f.person("Sari")
	o := f.order(f.customer("Toko"), first, line(a, 1))
	if err := f.db.Model(&models.Order{}).Where("id = ?", o.ID).Update("status", models.StatusPending).Error; err != nil {
		t.Fatal(err)
	}

	updated, err := f.orders.Reassign(f.ctx, admin, o.ID, &models.ReassignRequest{DeliveryPersonID: second.ID})
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if updated.Status != models.StatusAssigned {
		t.Errorf("status = %s, want assigned", updated.Status)
	}

	history, err := f.orderRepo.ListHistory(f.ctx, o.ID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}
	h := history[0]
	if h.Status != models.StatusAssigned || h.Comments == nil || *h.Comments != "assigned to Sari" {
		t.Errorf("history row = %+v", h)
	}
	if h.DeliveryAssignmentID == nil || updated.Assignment == nil || *h.DeliveryAssignmentID != updated.Assignment.ID {
		t.Error("history row not linked to the assignment")
	}
}

func TestUpdateOrderDetails(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	o := f.order(f.customer("Toko"), mustPerson(f), line(a, 2))

	profit := 4.555
	day := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	updated, err := f.orders.UpdateOrder(f.ctx, admin, o.ID, &models.UpdateOrderRequest{ProfitAmount: &profit, DeliveryDate: &day})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if updated.ProfitAmount != 4.56 {
		t.Errorf("ProfitAmount = %v, want 4.56", updated.ProfitAmount)
	}
	if updated.DeliveryDate == nil || !updated.DeliveryDate.Equal(day) {
		t.Errorf("DeliveryDate = %v", updated.DeliveryDate)
	}
	if updated.TotalAmount != 20 || updated.Status != models.StatusAssigned {
		t.Error("lifecycle fields changed")
	}

	negative := -1.0
	if _, err := f.orders.UpdateOrder(f.ctx, admin, o.ID, &models.UpdateOrderRequest{ProfitAmount: &negative}); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestDeletedRecordsStayReadableOnOrders(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	c := f.customer("Toko Lama")
	p := mustPerson(f)
	o := f.order(c, p, line(a, 1))

	if err := f.customers.DeleteCustomer(f.ctx, admin, c.ID); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	if err := f.products.DeleteProduct(f.ctx, admin, a.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if err := f.persons.DeleteDeliveryPerson(f.ctx, admin, p.ID); err != nil {
		t.Fatalf("DeleteDeliveryPerson: %v", err)
	}

	got, err := f.orders.GetOrder(f.ctx, admin, o.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Customer == nil || got.Customer.ShopName != "Toko Lama" {
		t.Error("deleted customer not resolved")
	}
	if got.Items[0].Product == nil || got.Items[0].Product.Name != "Rice" {
		t.Error("deleted product not resolved")
	}
	if got.Assignment.DeliveryPerson == nil {
		t.Error("deleted delivery person not resolved")
	}

	if _, err := f.customers.GetCustomer(f.ctx, c.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("deleted customer lookup err = %v", err)
	}
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	o := f.order(f.customer("Toko"), mustPerson(f), line(a, 1))

	if err := f.orders.DeleteOrder(f.ctx, admin, o.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, err := f.orders.GetOrder(f.ctx, admin, o.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
	if err := f.orders.DeleteOrder(f.ctx, admin, o.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("second delete err = %v, want ErrOrderNotFound", err)
	}
}

func TestOrderMetricsAndAudit(t *testing.T) {
	f := newFixture(t)
	a := f.product("Rice", 10, 100)
	o := f.order(f.customer("Toko"), mustPerson(f), line(a, 1))
	if _, err := f.orders.UpdateStatus(f.ctx, admin, o.ID, &models.UpdateStatusRequest{Status: "issues"}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	families, err := f.metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				found[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	if found["orders_created_total"] != 1 {
		t.Errorf("orders_created_total = %v", found["orders_created_total"])
	}
	if found["order_status_transitions_total"] != 1 {
		t.Errorf("order_status_transitions_total = %v", found["order_status_transitions_total"])
	}

	var n int64
	f.db.Table("audit_logs").Where("entity = ? AND action = ?", "order", "status_change").Count(&n)
	if n != 1 {
		t.Errorf("status_change audit rows = %d, want 1", n)
	}
}
