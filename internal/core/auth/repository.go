package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new auth repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateAccount inserts the identity and its profile in one transaction.
func (r *Repository) CreateAccount(ctx context.Context, identity *Identity, profile *UserProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		profile.ID = identity.ID
		profile.Email = identity.Email
		return tx.Create(profile).Error
	})
}

func (r *Repository) accounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("auth_identities AS i").
		Select("i.id, i.email, i.password_hash, i.is_active, i.refresh_token_expires_at, u.role, u.full_name, u.phone").
		Joins("JOIN users u ON u.id = i.id")
}

// GetAccountByEmail fetches identity and profile in a single joined query.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	var acc Account
	err := r.accounts(ctx).
		Where("i.email = ?", normalizeEmail(email)).
		Take(&acc).Error
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *Repository) GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	var acc Account
	err := r.accounts(ctx).
		Where("i.id = ?", id).
		Take(&acc).Error
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// IsActive reports whether the identity exists and is enabled.
func (r *Repository) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var identity Identity
	err := r.db.WithContext(ctx).
		Select("is_active").
		Where("id = ?", id).
		Take(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return identity.IsActive, nil
}

func (r *Repository) GetAccountByRefreshToken(ctx context.Context, refreshToken string) (*Account, error) {
	var acc Account
	err := r.accounts(ctx).
		Where("i.refresh_token = ?", refreshToken).
		Take(&acc).Error
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// EmailExists checks if email already exists
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Identity{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetRole returns the profile role of a user.
func (r *Repository) GetRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var profile UserProfile
	err := r.db.WithContext(ctx).Select("role").First(&profile, "id = ?", userID).Error
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

func (r *Repository) UpdateRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&Identity{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":            refreshToken,
			"refresh_token_expires_at": expiresAt,
		}).Error
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&Identity{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

// RevokeRefreshToken revokes (clears) user's refresh token
func (r *Repository) RevokeRefreshToken(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&Identity{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":            nil,
			"refresh_token_expires_at": nil,
		}).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
