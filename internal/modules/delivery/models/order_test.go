package models

import "testing"

func TestLineTotal(t *testing.T) {
	tests := []struct {
		qty   int
		price float64
		want  float64
	}{
		{2, 10.00, 20.00},
		{3, 5.00, 15.00},
		{3, 0.1, 0.30},
		{7, 1.15, 8.05},
		{1, 0, 0},
	}

	for _, tt := range tests {
		if got := LineTotal(tt.qty, tt.price); got != tt.want {
			t.Errorf("LineTotal(%d, %v) = %v, want %v", tt.qty, tt.price, got, tt.want)
		}
	}
}

func TestSumItems(t *testing.T) {
	items := []OrderItem{
		{Quantity: 2, UnitPrice: 10, TotalPrice: LineTotal(2, 10)},
		{Quantity: 3, UnitPrice: 5, TotalPrice: LineTotal(3, 5)},
	}
	if got := SumItems(items); got != 35.00 {
		t.Errorf("SumItems = %v, want 35.00", got)
	}

	if got := SumItems(nil); got != 0 {
		t.Errorf("SumItems(nil) = %v, want 0", got)
	}
}
