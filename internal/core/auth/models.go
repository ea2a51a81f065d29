package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin          = "admin"
	RoleDeliveryPerson = "delivery_person"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleDeliveryPerson
}

// Identity holds login credentials. Its profile lives in users under the same id.
type Identity struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email string    `gorm:"type:text;uniqueIndex;not null" json:"email"`

	PasswordHash string `gorm:"type:text;not null" json:"-"`

	// JWT Refresh Token
	RefreshToken          *string    `gorm:"type:text;index" json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`

	IsActive    bool       `gorm:"type:boolean;not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Identity) TableName() string {
	return "auth_identities"
}

func (i *Identity) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// UserProfile carries the role and contact details of an identity.
type UserProfile struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email    string    `gorm:"type:text;not null" json:"email"`
	Role     string    `gorm:"type:text;not null;index" json:"role"`
	FullName string    `gorm:"type:text;not null" json:"full_name"`
	Phone    string    `gorm:"type:text" json:"phone,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "users"
}

// Account is identity and profile read together in one query.
type Account struct {
	ID                    uuid.UUID
	Email                 string
	PasswordHash          string
	IsActive              bool
	RefreshTokenExpiresAt *time.Time
	Role                  string
	FullName              string
	Phone                 string
}

func (a *Account) Info() *UserInfo {
	return &UserInfo{
		ID:       a.ID.String(),
		Email:    a.Email,
		FullName: a.FullName,
		Role:     a.Role,
		Phone:    a.Phone,
	}
}

// SignUpRequest represents registration request payload
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role" validate:"required,oneof=admin delivery_person"`
}

// SignInRequest represents login request payload
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	User         *UserInfo `json:"user"`
}

// UserInfo represents user information in auth response
type UserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	JTI       string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionState is the closed set of session states a client can observe.
type SessionState string

const (
	StateUnauthenticated SessionState = "unauthenticated"
	StateAuthenticating  SessionState = "authenticating"
	StateAuthenticated   SessionState = "authenticated"
)

// Session is what CurrentSession resolves a token to. An authenticated
// session always carries a role.
type Session struct {
	State     SessionState `json:"state"`
	User      *UserInfo    `json:"user,omitempty"`
	Role      string       `json:"role,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.State == StateAuthenticated && s.Role != ""
}

func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}

func unauthenticated() *Session {
	return &Session{State: StateUnauthenticated}
}

// AdminSeed is the account EnsureDefaultAdmin provisions.
type AdminSeed struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

func DefaultAdminSeed() AdminSeed {
	return AdminSeed{
		Email:    "admin@stockmanager.com",
		Password: "Admin@123456",
		FullName: "System Administrator",
		Phone:    "+1234567890",
	}
}
