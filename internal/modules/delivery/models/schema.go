package models

// Tables lists the delivery models in foreign-key order, for SQLite
// AutoMigrate.
func Tables() []interface{} {
	return []interface{}{
		&Product{},
		&Customer{},
		&DeliveryPerson{},
		&Order{},
		&OrderItem{},
		&DeliveryAssignment{},
		&OrderStatusHistory{},
	}
}
