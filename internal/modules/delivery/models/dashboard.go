package models

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalProducts         int64                 `json:"total_products"`
	TotalCustomers        int64                 `json:"total_customers"`
	ActiveDeliveryPersons int64                 `json:"active_delivery_persons"`
	TotalOrders           int64                 `json:"total_orders"`
	TotalRevenue          float64               `json:"total_revenue"`
	TotalProfit           float64               `json:"total_profit"`
	OrdersByStatus        map[OrderStatus]int64 `json:"orders_by_status"`
	LowStockProducts      int64                 `json:"low_stock_products"`
	LowStockThreshold     int                   `json:"low_stock_threshold"`
}
