package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/validation"
)

type CustomerService struct {
	customerRepo repositories.CustomerRepo
	audit        *audit.Service
}

func NewCustomerService(customerRepo repositories.CustomerRepo, auditService *audit.Service) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		audit:        auditService,
	}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, actor Actor, req *models.CreateCustomerRequest) (*models.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ShopName = strings.TrimSpace(req.ShopName)
	req.ContactNumber = strings.TrimSpace(req.ContactNumber)
	if verr := validation.Struct(req); verr != nil {
		return nil, invalid(verr.Field, verr.Message)
	}

	customer := &models.Customer{
		Name:           req.Name,
		ShopName:       req.ShopName,
		ContactNumber:  req.ContactNumber,
		WhatsappNumber: req.WhatsappNumber,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		CreatedBy:      actor.ref(),
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, translate(err, ErrCustomerNotFound, "create customer")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionCreate, Entity: "customer", EntityID: customer.ID.String(),
		New: customer,
	})
	log.Info().Str("customer_id", customer.ID.String()).Str("shop", customer.ShopName).Msg("🏪 Customer created")
	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, ErrCustomerNotFound, "get customer")
	}
	return customer, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, filter models.CustomerFilter) (*models.CustomerListResponse, error) {
	filter.Page, filter.PageSize = repositories.NormalizePage(filter.Page, filter.PageSize)

	customers, total, err := s.customerRepo.List(ctx, filter)
	if err != nil {
		return nil, translate(err, ErrCustomerNotFound, "list customers")
	}

	return &models.CustomerListResponse{
		Customers:  customers,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: repositories.TotalPages(total, filter.PageSize),
	}, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, actor Actor, id uuid.UUID, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	if verr := validation.Struct(req); verr != nil {
		return nil, invalid(verr.Field, verr.Message)
	}

	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, ErrCustomerNotFound, "get customer")
	}
	before := *customer

	required := []struct {
		field string
		in    *string
		out   *string
	}{
		{"name", req.Name, &customer.Name},
		{"shop_name", req.ShopName, &customer.ShopName},
		{"contact_number", req.ContactNumber, &customer.ContactNumber},
	}
	for _, r := range required {
		if r.in == nil {
			continue
		}
		v := strings.TrimSpace(*r.in)
		if v == "" {
			return nil, invalid(r.field, "is required")
		}
		*r.out = v
	}

	if req.WhatsappNumber != nil {
		customer.WhatsappNumber = req.WhatsappNumber
	}
	if req.Address != nil {
		customer.Address = req.Address
	}
	if req.Latitude != nil {
		customer.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		customer.Longitude = req.Longitude
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, translate(err, ErrCustomerNotFound, "update customer")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionUpdate, Entity: "customer", EntityID: customer.ID.String(),
		Old: before, New: customer,
	})
	return customer, nil
}

// DeleteCustomer soft-deletes the customer. Its orders are left untouched.
func (s *CustomerService) DeleteCustomer(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return translate(err, ErrCustomerNotFound, "delete customer")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionDelete, Entity: "customer", EntityID: id.String(),
	})
	log.Info().Str("customer_id", id.String()).Msg("🗑️ Customer deleted")
	return nil
}
