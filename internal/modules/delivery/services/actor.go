package services

import (
	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/auth"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == auth.RoleAdmin
}

func (a Actor) IsDeliveryPerson() bool {
	return a.Role == auth.RoleDeliveryPerson
}

// ref returns a pointer to the user id, or nil for an anonymous actor.
func (a Actor) ref() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// SystemActor is used for writes made by background jobs and CLI tools.
var SystemActor = Actor{Role: auth.RoleAdmin}
