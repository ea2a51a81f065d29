package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/validation"
)

// OrderOptions tunes order creation.
type OrderOptions struct {
	// DecrementStock subtracts ordered quantities from product stock inside
	// the create transaction.
	DecrementStock bool
}

// OrderService owns the order lifecycle: atomic creation with assignment,
// status transitions with history, and reassignment.
type OrderService struct {
	orderRepo    repositories.OrderRepo
	productRepo  repositories.ProductRepo
	customerRepo repositories.CustomerRepo
	personRepo   repositories.DeliveryPersonRepo
	audit        *audit.Service
	metrics      *metrics.Metrics
	opts         OrderOptions
	now          func() time.Time
}

func NewOrderService(
	orderRepo repositories.OrderRepo,
	productRepo repositories.ProductRepo,
	customerRepo repositories.CustomerRepo,
	personRepo repositories.DeliveryPersonRepo,
	auditService *audit.Service,
	m *metrics.Metrics,
	opts OrderOptions,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		personRepo:   personRepo,
		audit:        auditService,
		metrics:      m,
		opts:         opts,
		now:          time.Now,
	}
}

// newOrderNumber returns ORD-<unix millis>-<4 hex chars>.
func (s *OrderService) newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("ORD-%d-%s", s.now().UnixMilli(), suffix)
}

// maxLineQuantity is the largest quantity order_items.quantity can hold.
const maxLineQuantity = math.MaxInt32

// mergeLines folds duplicate products into one line, keeping first-seen order.
// Every merged quantity must stay within (0, maxLineQuantity].
func mergeLines(lines []models.OrderLine) ([]models.OrderLine, error) {
	merged := make([]models.OrderLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 || l.Quantity > maxLineQuantity {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[l.ProductID]; ok {
			if merged[i].Quantity > maxLineQuantity-l.Quantity {
				return nil, ErrInvalidQuantity
			}
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// CreateOrder validates the request, then writes the order, its items and
// its assignment in one transaction. The stored order ends up assigned.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req *models.CreateOrderRequest) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if verr := validation.Struct(req); verr != nil {
		return nil, invalid(verr.Field, verr.Message)
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, l := range req.Items {
		if l.ProductID == uuid.Nil {
			return nil, invalid("items.product_id", "is required")
		}
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		return nil, translate(err, ErrCustomerNotFound, "get customer")
	}
	person, err := s.personRepo.GetByID(ctx, req.DeliveryPersonID)
	if err != nil {
		return nil, translate(err, ErrDeliveryPersonNotFound, "get delivery person")
	}
	if !person.IsActive {
		return nil, ErrDeliveryPersonInactive
	}

	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, translate(err, ErrProductNotFound, "get products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
		}
		if !p.HasStock(l.Quantity) {
			return nil, fmt.Errorf("%w for %q: requested %d, available %d", ErrInsufficientStock, p.Name, l.Quantity, p.Quantity)
		}
		items = append(items, models.OrderItem{
			ProductID:  p.ID,
			Quantity:   l.Quantity,
			UnitPrice:  p.SellingPrice,
			TotalPrice: models.LineTotal(l.Quantity, p.SellingPrice),
		})
	}

	order := &models.Order{
		OrderNumber:  s.newOrderNumber(),
		CustomerID:   req.CustomerID,
		TotalAmount:  models.SumItems(items),
		ProfitAmount: models.RoundMoney(req.ProfitAmount),
		DeliveryDate: req.DeliveryDate,
		CreatedBy:    actor.ref(),
	}
	assignment := &models.DeliveryAssignment{
		DeliveryPersonID: person.ID,
		AssignedBy:       actor.ref(),
	}

	err = s.orderRepo.CreateWithAssignment(ctx, order, items, assignment, s.opts.DecrementStock)
	if err != nil {
		var shortage *repositories.StockShortage
		switch {
		case errors.As(err, &shortage):
			name := shortage.ProductID.String()
			if p, ok := byID[shortage.ProductID]; ok {
				name = p.Name
			}
			return nil, fmt.Errorf("%w for %q", ErrInsufficientStock, name)
		case errors.Is(err, repositories.ErrStatusConflict):
			return nil, ErrStatusConflict
		default:
			return nil, translate(err, ErrOrderNotFound, "create order")
		}
	}

	s.metrics.OrderCreated()
	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionCreate, Entity: "order", EntityID: order.ID.String(),
		New: order,
	})
	log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("items", len(items)).
		Float64("total", order.TotalAmount).
		Msg("🧾 Order created")

	return s.getDetailed(ctx, order.ID)
}

func (s *OrderService) getDetailed(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetDetailed(ctx, id)
	if err != nil {
		return nil, translate(err, ErrOrderNotFound, "get order")
	}
	return order, nil
}

// deliveryPersonFor resolves the delivery person record behind a login.
func (s *OrderService) deliveryPersonFor(ctx context.Context, actor Actor) (*models.DeliveryPerson, error) {
	person, err := s.personRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, translate(err, ErrNoDeliveryLogin, "get delivery person")
	}
	return person, nil
}

// authorize lets admins through and checks that a delivery person is the
// one assigned to the order.
func (s *OrderService) authorize(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsDeliveryPerson() {
		return ErrForbidden
	}
	person, err := s.deliveryPersonFor(ctx, actor)
	if err != nil {
		return err
	}
	assignment, err := s.orderRepo.GetAssignment(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotAssigned
	}
	if err != nil {
		return translate(err, ErrOrderNotFound, "get assignment")
	}
	if assignment.DeliveryPersonID != person.ID {
		return ErrNotAssigned
	}
	return nil
}

// GetOrder returns the order with customer, items, assignment and history.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.getDetailed(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns one page of orders with their nested records.
func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) (*models.OrderListResponse, error) {
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, ErrInvalidDateRange
	}
	filter.Page, filter.PageSize = repositories.NormalizePage(filter.Page, filter.PageSize)

	orders, total, err := s.orderRepo.ListDetailed(ctx, filter)
	if err != nil {
		return nil, translate(err, ErrOrderNotFound, "list orders")
	}

	return &models.OrderListResponse{
		Orders:     orders,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: repositories.TotalPages(total, filter.PageSize),
	}, nil
}

// ListMyOrders returns the orders assigned to the calling delivery person,
// newest first. An empty status lists every status.
func (s *OrderService) ListMyOrders(ctx context.Context, actor Actor, status string) ([]models.Order, error) {
	if !actor.IsDeliveryPerson() {
		return nil, ErrNoDeliveryLogin
	}

	var filter *models.OrderStatus
	if status != "" {
		st, err := models.ParseOrderStatus(status)
		if err != nil {
			return nil, ErrInvalidStatus
		}
		filter = &st
	}

	person, err := s.deliveryPersonFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByDeliveryPerson(ctx, person.ID, filter)
	if err != nil {
		return nil, translate(err, ErrOrderNotFound, "list orders")
	}
	return orders, nil
}

// UpdateStatus moves an order to a new status and appends one history row.
// All checks run before anything is written.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req *models.UpdateStatusRequest) (*models.Order, error) {
	next, err := models.ParseOrderStatus(strings.TrimSpace(req.Status))
	if err != nil {
		return nil, ErrInvalidStatus
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, ErrOrderNotFound, "get order")
	}

	if !actor.IsAdmin() {
		if err := s.authorize(ctx, actor, id); err != nil {
			return nil, err
		}
		if next == models.StatusCancelled {
			return nil, ErrCannotCancel
		}
	}

	current := order.Status
	if next == current {
		return nil, ErrStatusUnchanged
	}
	if current.IsTerminal() {
		return nil, fmt.Errorf("%w: order is %s and can no longer change", ErrInvalidTransition, current)
	}
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	history := &models.OrderStatusHistory{
		Comments:  req.Comments,
		UpdatedBy: actor.ref(),
	}
	if err := s.orderRepo.TransitionStatus(ctx, id, current, next, history); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, ErrStatusConflict
		}
		return nil, translate(err, ErrOrderNotFound, "update order status")
	}

	s.metrics.StatusTransition(string(current), string(next))
	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionStatusChange, Entity: "order", EntityID: id.String(),
		Old: map[string]models.OrderStatus{"status": current},
		New: map[string]models.OrderStatus{"status": next},
	})
	log.Info().
		Str("order_id", id.String()).
		Str("from", string(current)).
		Str("to", string(next)).
		Str("role", actor.Role).
		Msg("🚚 Order status updated")

	return s.getDetailed(ctx, id)
}

// Reassign hands the order to another active delivery person. A pending
// order also moves to assigned.
func (s *OrderService) Reassign(ctx context.Context, actor Actor, id uuid.UUID, req *models.ReassignRequest) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if verr := validation.Struct(req); verr != nil {
		return nil, invalid(verr.Field, verr.Message)
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, ErrOrderNotFound, "get order")
	}
	if !order.Status.Reassignable() {
		return nil, ErrNotReassignable
	}

	person, err := s.personRepo.GetByID(ctx, req.DeliveryPersonID)
	if err != nil {
		return nil, translate(err, ErrDeliveryPersonNotFound, "get delivery person")
	}
	if !person.IsActive {
		return nil, ErrDeliveryPersonInactive
	}

	var previous *uuid.UUID
	if existing, err := s.orderRepo.GetAssignment(ctx, id); err == nil {
		previous = &existing.DeliveryPersonID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate(err, ErrOrderNotFound, "get assignment")
	}

	assignment := &models.DeliveryAssignment{
		OrderID:          id,
		DeliveryPersonID: person.ID,
		AssignedBy:       actor.ref(),
	}
	comment := "assigned to " + person.Name
	history := &models.OrderStatusHistory{Comments: &comment, UpdatedBy: actor.ref()}
	err = s.orderRepo.Reassign(ctx, assignment, order.Status, history)
	if errors.Is(err, repositories.ErrStatusConflict) {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, translate(err, ErrOrderNotFound, "reassign order")
	}
	if order.Status == models.StatusPending {
		s.metrics.StatusTransition(string(models.StatusPending), string(models.StatusAssigned))
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionAssign, Entity: "order", EntityID: id.String(),
		Old: map[string]*uuid.UUID{"delivery_person_id": previous},
		New: map[string]uuid.UUID{"delivery_person_id": person.ID},
	})
	log.Info().
		Str("order_id", id.String()).
		Str("delivery_person_id", person.ID.String()).
		Msg("🔁 Order reassigned")

	return s.getDetailed(ctx, id)
}

// UpdateOrder edits delivery date and profit. Status and totals are not
// editable here.
func (s *OrderService) UpdateOrder(ctx context.Context, actor Actor, id uuid.UUID, req *models.UpdateOrderRequest) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if verr := validation.Struct(req); verr != nil {
		return nil, invalid(verr.Field, verr.Message)
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, ErrOrderNotFound, "get order")
	}
	before := *order

	if req.DeliveryDate != nil {
		order.DeliveryDate = req.DeliveryDate
	}
	if req.ProfitAmount != nil {
		order.ProfitAmount = models.RoundMoney(*req.ProfitAmount)
	}

	if err := s.orderRepo.UpdateDetails(ctx, order); err != nil {
		return nil, translate(err, ErrOrderNotFound, "update order")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionUpdate, Entity: "order", EntityID: id.String(),
		Old: before, New: order,
	})
	return s.getDetailed(ctx, id)
}

// DeleteOrder soft-deletes the order. Items, assignment and history stay.
func (s *OrderService) DeleteOrder(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return translate(err, ErrOrderNotFound, "delete order")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionDelete, Entity: "order", EntityID: id.String(),
	})
	log.Info().Str("order_id", id.String()).Msg("🗑️ Order deleted")
	return nil
}

// GetHistory returns the status history, newest first.
func (s *OrderService) GetHistory(ctx context.Context, actor Actor, id uuid.UUID) ([]models.OrderStatusHistory, error) {
	if _, err := s.orderRepo.GetByID(ctx, id); err != nil {
		return nil, translate(err, ErrOrderNotFound, "get order")
	}
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}

	history, err := s.orderRepo.ListHistory(ctx, id)
	if err != nil {
		return nil, translate(err, ErrOrderNotFound, "list history")
	}
	return history, nil
}
