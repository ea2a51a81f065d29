package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/database/dbtest"
)

func TestRecordAndGetLogs(t *testing.T) {
	db := dbtest.New(t, &AuditLog{})
	svc := NewService(db)
	ctx := context.Background()

	actor := uuid.New()
	svc.Record(ctx, Entry{ActorID: &actor, Action: ActionCreate, Entity: "product", EntityID: "p1", New: map[string]int{"quantity": 3}})
	svc.Record(ctx, Entry{ActorID: &actor, Action: ActionUpdate, Entity: "product", EntityID: "p1"})
	svc.Record(ctx, Entry{Action: ActionDelete, Entity: "customer", EntityID: "c1"})

	tests := []struct {
		name   string
		filter AuditFilter
		want   int64
	}{
		{"all", AuditFilter{}, 3},
		{"by entity", AuditFilter{Entity: "product"}, 2},
		{"by action", AuditFilter{Action: ActionDelete}, 1},
		{"by actor", AuditFilter{ActorID: &actor}, 2},
		{"by entity id", AuditFilter{Entity: "product", EntityID: "missing"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetLogs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("GetLogs: %v", err)
			}
			if resp.TotalCount != tt.want {
				t.Errorf("TotalCount = %d, want %d", resp.TotalCount, tt.want)
			}
		})
	}
}

func TestGetLogsPaging(t *testing.T) {
	db := dbtest.New(t, &AuditLog{})
	svc := NewService(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.Record(ctx, Entry{Action: ActionCreate, Entity: "order"})
	}

	resp, err := svc.GetLogs(ctx, AuditFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if len(resp.Logs) != 2 || resp.TotalPages != 3 {
		t.Errorf("page 2 = %d logs over %d pages, want 2 over 3", len(resp.Logs), resp.TotalPages)
	}
}

func TestDeleteOldLogs(t *testing.T) {
	db := dbtest.New(t, &AuditLog{})
	svc := NewService(db)
	ctx := context.Background()

	old := &AuditLog{Action: ActionCreate, Entity: "order", CreatedAt: time.Now().AddDate(0, 0, -120)}
	if err := svc.Log(ctx, old); err != nil {
		t.Fatalf("Log: %v", err)
	}
	svc.Record(ctx, Entry{Action: ActionCreate, Entity: "order"})

	deleted, err := svc.DeleteOldLogs(ctx, 90)
	if err != nil {
		t.Fatalf("DeleteOldLogs: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if _, err := svc.DeleteOldLogs(ctx, 0); err == nil {
		t.Error("DeleteOldLogs(0) should fail")
	}
}

func TestRecordOnNilService(t *testing.T) {
	var svc *Service
	svc.Record(context.Background(), Entry{Action: ActionCreate, Entity: "order"})
}
