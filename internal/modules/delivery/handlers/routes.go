package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/metrics"
)

// Routes groups every handler the API serves.
type Routes struct {
	AuthService *auth.Service
	Metrics     *metrics.Metrics

	Auth            *auth.Handler
	Audit           *audit.Handler
	Health          *HealthHandler
	Products        *ProductHandler
	Customers       *CustomerHandler
	DeliveryPersons *DeliveryPersonHandler
	Orders          *OrderHandler
	Dashboard       *DashboardHandler
	Reports         *ReportHandler
}

// Register mounts the public endpoints, the auth endpoints and the
// role-guarded /api routes on app.
func (r *Routes) Register(app *fiber.App) {
	app.Get("/health", r.Health.GetHealth)
	if r.Metrics != nil {
		app.Get("/metrics", r.Metrics.Handler())
	}

	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", auth.OptionalAuth(r.AuthService), r.Auth.SignUp)
	authGroup.Post("/signin", r.Auth.SignIn)
	authGroup.Post("/refresh", r.Auth.Refresh)
	authGroup.Post("/signout", auth.AuthMiddleware(r.AuthService), r.Auth.SignOut)
	authGroup.Get("/session", r.Auth.Session)
	api.Post("/setup/admin", r.Auth.SetupAdmin)

	authed := auth.AuthMiddleware(r.AuthService)
	admin := auth.RequireRole(auth.RoleAdmin)
	anyRole := auth.RequireRole(auth.RoleAdmin, auth.RoleDeliveryPerson)
	courier := auth.RequireRole(auth.RoleDeliveryPerson)

	// Product routes
	products := api.Group("/products", authed)
	products.Get("/", anyRole, r.Products.ListProducts)
	products.Get("/:id", anyRole, r.Products.GetProduct)
	products.Post("/", admin, r.Products.CreateProduct)
	products.Put("/:id", admin, r.Products.UpdateProduct)
	products.Delete("/:id", admin, r.Products.DeleteProduct)

	// Customer routes
	customers := api.Group("/customers", authed, admin)
	customers.Get("/", r.Customers.ListCustomers)
	customers.Get("/:id", r.Customers.GetCustomer)
	customers.Post("/", r.Customers.CreateCustomer)
	customers.Put("/:id", r.Customers.UpdateCustomer)
	customers.Delete("/:id", r.Customers.DeleteCustomer)

	// Delivery person routes
	persons := api.Group("/delivery-persons", authed, admin)
	persons.Get("/", r.DeliveryPersons.ListDeliveryPersons)
	persons.Get("/:id", r.DeliveryPersons.GetDeliveryPerson)
	persons.Post("/", r.DeliveryPersons.CreateDeliveryPerson)
	persons.Put("/:id", r.DeliveryPersons.UpdateDeliveryPerson)
	persons.Delete("/:id", r.DeliveryPersons.DeleteDeliveryPerson)

	// Order routes. The service checks assignment for delivery persons.
	orders := api.Group("/orders", authed)
	orders.Get("/", admin, r.Orders.ListOrders)
	orders.Post("/", admin, r.Orders.CreateOrder)
	orders.Get("/:id", anyRole, r.Orders.GetOrder)
	orders.Patch("/:id", admin, r.Orders.UpdateOrder)
	orders.Delete("/:id", admin, r.Orders.DeleteOrder)
	orders.Patch("/:id/status", anyRole, r.Orders.UpdateStatus)
	orders.Put("/:id/assignment", admin, r.Orders.Reassign)
	orders.Get("/:id/history", anyRole, r.Orders.GetHistory)

	api.Get("/my/orders", authed, courier, r.Orders.ListMyOrders)

	// Admin views
	api.Get("/dashboard", authed, admin, r.Dashboard.GetStats)
	api.Get("/reports/orders", authed, admin, r.Reports.ExportOrders)
	api.Get("/audit-logs", authed, admin, r.Audit.GetLogs)
}
