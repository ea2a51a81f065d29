package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
)

// Error classes. Handlers map these to HTTP status codes.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

var (
	ErrProductNotFound        = fmt.Errorf("product %w", ErrNotFound)
	ErrCustomerNotFound       = fmt.Errorf("customer %w", ErrNotFound)
	ErrDeliveryPersonNotFound = fmt.Errorf("delivery person %w", ErrNotFound)
	ErrOrderNotFound          = fmt.Errorf("order %w", ErrNotFound)

	ErrEmptyItems             = fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	ErrInvalidQuantity        = fmt.Errorf("%w: item quantity must be greater than zero", ErrValidation)
	ErrInsufficientStock      = fmt.Errorf("%w: insufficient stock", ErrValidation)
	ErrDeliveryPersonInactive = fmt.Errorf("%w: delivery person is not active", ErrValidation)
	ErrInvalidStatus          = fmt.Errorf("%w: %w", ErrValidation, models.ErrInvalidStatus)
	ErrInvalidDateRange       = fmt.Errorf("%w: from must be before to", ErrValidation)

	ErrStatusUnchanged   = fmt.Errorf("%w: order already has this status", ErrValidation)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrConflict)
	ErrStatusConflict    = fmt.Errorf("%w: %w", ErrConflict, repositories.ErrStatusConflict)
	ErrNotReassignable   = fmt.Errorf("%w: order can no longer be reassigned", ErrConflict)
	ErrDuplicateSKU      = fmt.Errorf("%w: sku already exists", ErrConflict)

	ErrNotAssigned     = fmt.Errorf("%w: order is not assigned to you", ErrForbidden)
	ErrCannotCancel    = fmt.Errorf("%w: only an admin can cancel an order", ErrForbidden)
	ErrAdminOnly       = fmt.Errorf("%w: admin role required", ErrForbidden)
	ErrNoDeliveryLogin = fmt.Errorf("%w: account is not linked to a delivery person", ErrForbidden)
)

// ValidationError reports a single invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// translate maps storage errors onto service errors. notFound is returned
// for a missing record.
func translate(err error, notFound error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s: duplicate key", ErrConflict, op)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
