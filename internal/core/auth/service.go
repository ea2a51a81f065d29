package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/validation"
)

type Service struct {
	repo       *Repository
	jwtService *JWTService
	blocklist  TokenBlocklist
	now        func() time.Time
}

// NewService creates a new auth service. A nil blocklist falls back to an
// in-memory one.
func NewService(db *gorm.DB, jwtSecret string, blocklist TokenBlocklist) *Service {
	if blocklist == nil {
		blocklist = NewMemoryBlocklist()
	}
	return &Service{
		repo:       NewRepository(db),
		jwtService: NewJWTService(jwtSecret),
		blocklist:  blocklist,
		now:        time.Now,
	}
}

// SignUp creates an identity and its profile atomically and signs the new
// user in. Creating an admin requires caller to be an authenticated admin.
func (s *Service) SignUp(ctx context.Context, req *SignUpRequest, caller *Session) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if verr := validation.Struct(req); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr.Error())
	}
	if req.Role == RoleAdmin && !caller.IsAdmin() {
		return nil, ErrAdminRequired
	}

	acc, err := s.createAccount(ctx, req.Email, req.Password, req.FullName, req.Phone, req.Role)
	if err != nil {
		return nil, err
	}

	log.Info().Str("email", acc.Email).Str("role", acc.Role).Msg("✅ User registered")
	return s.issueTokens(ctx, acc)
}

func (s *Service) createAccount(ctx context.Context, email, password, fullName, phone, role string) (*Account, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	identity := &Identity{Email: email, PasswordHash: passwordHash, IsActive: true}
	profile := &UserProfile{Role: role, FullName: fullName, Phone: phone}
	if err := s.repo.CreateAccount(ctx, identity, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &Account{
		ID:           identity.ID,
		Email:        identity.Email,
		PasswordHash: identity.PasswordHash,
		IsActive:     true,
		Role:         profile.Role,
		FullName:     profile.FullName,
		Phone:        profile.Phone,
	}, nil
}

// SignIn authenticates with email and password. Identity and role come from
// one query, so the returned session always has its role.
func (s *Service) SignIn(ctx context.Context, req *SignInRequest) (*AuthResponse, error) {
	if verr := validation.Struct(req); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr.Error())
	}

	acc, err := s.repo.GetAccountByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if !acc.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(acc.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLogin(ctx, acc.ID, s.now()); err != nil {
		log.Warn().Err(err).Str("user_id", acc.ID.String()).Msg("⚠️ failed to update last login")
	}

	log.Info().Str("email", acc.Email).Str("role", acc.Role).Msg("✅ User signed in")
	return s.issueTokens(ctx, acc)
}

// SignOut revokes the refresh token and blocks the access token until it
// would have expired anyway.
func (s *Service) SignOut(ctx context.Context, claims *TokenClaims) error {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.repo.RevokeRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if err := s.blocklist.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}

	log.Info().Str("user_id", claims.UserID).Msg("👋 User signed out")
	return nil
}

// Refresh rotates both tokens. The old refresh token stops working.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	acc, err := s.repo.GetAccountByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if acc.ID.String() != userID || !acc.IsActive {
		return nil, ErrInvalidToken
	}
	if acc.RefreshTokenExpiresAt != nil && acc.RefreshTokenExpiresAt.Before(s.now()) {
		return nil, ErrInvalidToken
	}

	return s.issueTokens(ctx, acc)
}

// ValidateToken checks signature, expiry and revocation of an access token,
// and that its account is still active.
func (s *Service) ValidateToken(ctx context.Context, accessToken string) (*TokenClaims, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blocklist.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	// A disabled account loses access at once, not when its token expires.
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	active, err := s.repo.IsActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check account: %w", err)
	}
	if !active {
		return nil, ErrAccountDisabled
	}
	return claims, nil
}

// CurrentSession resolves a bearer token to a session. Any token problem
// yields an unauthenticated session; only infrastructure failures return an
// error.
func (s *Service) CurrentSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return unauthenticated(), nil
	}

	claims, err := s.ValidateToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenRevoked) || errors.Is(err, ErrAccountDisabled) {
			return unauthenticated(), nil
		}
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return unauthenticated(), nil
	}
	acc, err := s.repo.GetAccountByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return unauthenticated(), nil
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if !acc.IsActive || acc.Role == "" {
		return unauthenticated(), nil
	}

	expiresAt := claims.ExpiresAt
	return &Session{
		State:     StateAuthenticated,
		User:      acc.Info(),
		Role:      acc.Role,
		ExpiresAt: &expiresAt,
	}, nil
}

// GetRole returns the role of userID or ErrUserNotFound.
func (s *Service) GetRole(ctx context.Context, userID uuid.UUID) (string, error) {
	role, err := s.repo.GetRole(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	return role, err
}

func (s *Service) issueTokens(ctx context.Context, acc *Account) (*AuthResponse, error) {
	accessToken, claims, err := s.jwtService.GenerateAccessToken(acc.ID.String(), acc.Email, acc.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.jwtService.GenerateRefreshToken(acc.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.repo.UpdateRefreshToken(ctx, acc.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(claims.ExpiresAt.Sub(s.now()).Seconds()),
		User:         acc.Info(),
	}, nil
}
