package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/validation"
)

// RoleLookup resolves the role of a login account.
type RoleLookup interface {
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
}

type DeliveryPersonService struct {
	personRepo repositories.DeliveryPersonRepo
	roles      RoleLookup
	audit      *audit.Service
}

func NewDeliveryPersonService(personRepo repositories.DeliveryPersonRepo, roles RoleLookup, auditService *audit.Service) *DeliveryPersonService {
	return &DeliveryPersonService{
		personRepo: personRepo,
		roles:      roles,
		audit:      auditService,
	}
}

// checkLogin verifies that userID belongs to a delivery_person account.
func (s *DeliveryPersonService) checkLogin(ctx context.Context, userID *uuid.UUID) error {
	if userID == nil || s.roles == nil {
		return nil
	}
	role, err := s.roles.GetRole(ctx, *userID)
	if errors.Is(err, auth.ErrUserNotFound) {
		return invalid("user_id", "does not reference an existing account")
	}
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if role != auth.RoleDeliveryPerson {
		return invalid("user_id", "must reference a delivery_person account")
	}
	return nil
}

func (s *DeliveryPersonService) CreateDeliveryPerson(ctx context.Context, actor Actor, req *models.CreateDeliveryPersonRequest) (*models.DeliveryPerson, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ContactNumber = strings.TrimSpace(req.ContactNumber)
	if verr := validation.Struct(req); verr != nil {
		return nil, invalid(verr.Field, verr.Message)
	}
	if err := s.checkLogin(ctx, req.UserID); err != nil {
		return nil, err
	}

	person := &models.DeliveryPerson{
		Name:           req.Name,
		ContactNumber:  req.ContactNumber,
		WhatsappNumber: req.WhatsappNumber,
		Address:        req.Address,
		IsActive:       true,
		UserID:         req.UserID,
	}
	if req.IsActive != nil {
		person.IsActive = *req.IsActive
	}

	if err := s.personRepo.Create(ctx, person); err != nil {
		return nil, translate(err, ErrDeliveryPersonNotFound, "create delivery person")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionCreate, Entity: "delivery_person", EntityID: person.ID.String(),
		New: person,
	})
	log.Info().Str("delivery_person_id", person.ID.String()).Str("name", person.Name).Msg("🛵 Delivery person created")
	return person, nil
}

func (s *DeliveryPersonService) GetDeliveryPerson(ctx context.Context, id uuid.UUID) (*models.DeliveryPerson, error) {
	person, err := s.personRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, ErrDeliveryPersonNotFound, "get delivery person")
	}
	return person, nil
}

// GetByUser returns the delivery person linked to a login account.
func (s *DeliveryPersonService) GetByUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryPerson, error) {
	person, err := s.personRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, translate(err, ErrNoDeliveryLogin, "get delivery person")
	}
	return person, nil
}

func (s *DeliveryPersonService) ListDeliveryPersons(ctx context.Context, filter models.DeliveryPersonFilter) (*models.DeliveryPersonListResponse, error) {
	filter.Page, filter.PageSize = repositories.NormalizePage(filter.Page, filter.PageSize)

	persons, total, err := s.personRepo.List(ctx, filter)
	if err != nil {
		return nil, translate(err, ErrDeliveryPersonNotFound, "list delivery persons")
	}

	return &models.DeliveryPersonListResponse{
		DeliveryPersons: persons,
		Total:           total,
		Page:            filter.Page,
		PageSize:        filter.PageSize,
		TotalPages:      repositories.TotalPages(total, filter.PageSize),
	}, nil
}

func (s *DeliveryPersonService) UpdateDeliveryPerson(ctx context.Context, actor Actor, id uuid.UUID, req *models.UpdateDeliveryPersonRequest) (*models.DeliveryPerson, error) {
	if verr := validation.Struct(req); verr != nil {
		return nil, invalid(verr.Field, verr.Message)
	}

	person, err := s.personRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, ErrDeliveryPersonNotFound, "get delivery person")
	}
	before := *person

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name", "is required")
		}
		person.Name = name
	}
	if req.ContactNumber != nil {
		contact := strings.TrimSpace(*req.ContactNumber)
		if contact == "" {
			return nil, invalid("contact_number", "is required")
		}
		person.ContactNumber = contact
	}
	if req.WhatsappNumber != nil {
		person.WhatsappNumber = req.WhatsappNumber
	}
	if req.Address != nil {
		person.Address = req.Address
	}
	if req.IsActive != nil {
		person.IsActive = *req.IsActive
	}
	if req.UserID != nil {
		if err := s.checkLogin(ctx, req.UserID); err != nil {
			return nil, err
		}
		person.UserID = req.UserID
	}

	if err := s.personRepo.Update(ctx, person); err != nil {
		return nil, translate(err, ErrDeliveryPersonNotFound, "update delivery person")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionUpdate, Entity: "delivery_person", EntityID: person.ID.String(),
		Old: before, New: person,
	})
	return person, nil
}

// DeleteDeliveryPerson soft-deletes the person. Existing assignments keep
// pointing at the record.
func (s *DeliveryPersonService) DeleteDeliveryPerson(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.personRepo.Delete(ctx, id); err != nil {
		return translate(err, ErrDeliveryPersonNotFound, "delete delivery person")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionDelete, Entity: "delivery_person", EntityID: id.String(),
	})
	log.Info().Str("delivery_person_id", id.String()).Msg("🗑️ Delivery person deleted")
	return nil
}
