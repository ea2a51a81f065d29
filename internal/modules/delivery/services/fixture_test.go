package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/database/dbtest"
)

var admin = Actor{UserID: uuid.New(), Role: auth.RoleAdmin}

type fixture struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB

	products  *ProductService
	customers *CustomerService
	persons   *DeliveryPersonService
	orders    *OrderService
	dashboard *DashboardService

	productRepo repositories.ProductRepo
	orderRepo   repositories.OrderRepo
	metrics     *metrics.Metrics
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	orderOpts   OrderOptions
	productRepo func(repositories.ProductRepo) repositories.ProductRepo
	orderRepo   func(repositories.OrderRepo) repositories.OrderRepo
}

func withDecrementStock() fixtureOption {
	return func(c *fixtureConfig) { c.orderOpts.DecrementStock = true }
}

func withProductRepo(wrap func(repositories.ProductRepo) repositories.ProductRepo) fixtureOption {
	return func(c *fixtureConfig) { c.productRepo = wrap }
}

func withOrderRepo(wrap func(repositories.OrderRepo) repositories.OrderRepo) fixtureOption {
	return func(c *fixtureConfig) { c.orderRepo = wrap }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	var cfg fixtureConfig
	for _, o := range opts {
		o(&cfg)
	}

	db := dbtest.New(t,
		&models.Product{},
		&models.Customer{},
		&models.DeliveryPerson{},
		&models.Order{},
		&models.OrderItem{},
		&models.DeliveryAssignment{},
		&models.OrderStatusHistory{},
		&audit.AuditLog{},
	)

	auditSvc := audit.NewService(db)
	m := metrics.New()

	productRepo := repositories.NewProductRepo(db)
	orderProducts := productRepo
	if cfg.productRepo != nil {
		orderProducts = cfg.productRepo(productRepo)
	}
	customerRepo := repositories.NewCustomerRepo(db)
	personRepo := repositories.NewDeliveryPersonRepo(db)
	orderRepo := repositories.NewOrderRepo(db)
	serviceOrders := orderRepo
	if cfg.orderRepo != nil {
		serviceOrders = cfg.orderRepo(orderRepo)
	}

	return &fixture{
		t:         t,
		ctx:       context.Background(),
		db:        db,
		products:  NewProductService(productRepo, auditSvc),
		customers: NewCustomerService(customerRepo, auditSvc),
		persons:   NewDeliveryPersonService(personRepo, nil, auditSvc),
		orders:    NewOrderService(serviceOrders, orderProducts, customerRepo, personRepo, auditSvc, m, cfg.orderOpts),
		dashboard: NewDashboardService(repositories.NewDashboardRepo(db), 5),

		productRepo: productRepo,
		orderRepo:   orderRepo,
		metrics:     m,
	}
}

func (f *fixture) product(name string, price float64, qty int) *models.Product {
	f.t.Helper()
	p, err := f.products.CreateProduct(f.ctx, admin, &models.CreateProductRequest{
		Name: name, Unit: "pcs", SellingPrice: price, Quantity: qty,
	})
	if err != nil {
		f.t.Fatalf("create product: %v", err)
	}
	return p
}

func (f *fixture) customer(shop string) *models.Customer {
	f.t.Helper()
	c, err := f.customers.CreateCustomer(f.ctx, admin, &models.CreateCustomerRequest{
		Name: "Owner of " + shop, ShopName: shop, ContactNumber: "0800",
	})
	if err != nil {
		f.t.Fatalf("create customer: %v", err)
	}
	return c
}

// person creates an active delivery person linked to a fresh login and
// returns it with the matching actor.
func (f *fixture) person(name string) (*models.DeliveryPerson, Actor) {
	f.t.Helper()
	userID := uuid.New()
	p, err := f.persons.CreateDeliveryPerson(f.ctx, admin, &models.CreateDeliveryPersonRequest{
		Name: name, ContactNumber: "0811", UserID: &userID,
	})
	if err != nil {
		f.t.Fatalf("create delivery person: %v", err)
	}
	return p, Actor{UserID: userID, Role: auth.RoleDeliveryPerson}
}

func (f *fixture) order(c *models.Customer, p *models.DeliveryPerson, lines ...models.OrderLine) *models.Order {
	f.t.Helper()
	o, err := f.orders.CreateOrder(f.ctx, admin, &models.CreateOrderRequest{
		CustomerID: c.ID, DeliveryPersonID: p.ID, Items: lines,
	})
	if err != nil {
		f.t.Fatalf("create order: %v", err)
	}
	return o
}

func (f *fixture) count(model interface{}) int64 {
	f.t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		f.t.Fatalf("count: %v", err)
	}
	return n
}

func line(p *models.Product, qty int) models.OrderLine {
	return models.OrderLine{ProductID: p.ID, Quantity: qty}
}
