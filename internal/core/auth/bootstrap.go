package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/validation"
)

type adminSeedInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
}

// EnsureDefaultAdmin provisions the admin account described by seed. It is
// idempotent: when the email is already registered nothing is written and
// created is false.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, seed AdminSeed) (created bool, err error) {
	seed.Email = normalizeEmail(seed.Email)
	seed.FullName = strings.TrimSpace(seed.FullName)

	if verr := validation.Struct(adminSeedInput{Email: seed.Email, Password: seed.Password, FullName: seed.FullName}); verr != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidInput, verr.Error())
	}

	exists, err := s.repo.EmailExists(ctx, seed.Email)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		log.Info().Str("email", seed.Email).Msg("ℹ️ Admin account already exists")
		return false, nil
	}

	if _, err := s.createAccount(ctx, seed.Email, seed.Password, seed.FullName, seed.Phone, RoleAdmin); err != nil {
		if err == ErrEmailTaken {
			return false, nil
		}
		return false, err
	}

	log.Info().Str("email", seed.Email).Msg("✅ Admin account provisioned")
	return true, nil
}
