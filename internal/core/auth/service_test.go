package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/database/dbtest"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t, &Identity{}, &UserProfile{})
	return NewService(db, "test-secret", NewMemoryBlocklist()), db
}

var adminCaller = &Session{State: StateAuthenticated, Role: RoleAdmin}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, &SignUpRequest{
		Email:    "  Rider@Example.com ",
		Password: "secret1",
		FullName: "Rider One",
		Role:     RoleDeliveryPerson,
	}, nil)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if resp.User.Role != RoleDeliveryPerson || resp.User.Email != "rider@example.com" {
		t.Errorf("SignUp user = %+v, want delivery_person rider@example.com", resp.User)
	}

	in, err := svc.SignIn(ctx, &SignInRequest{Email: "rider@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if in.User.Role != RoleDeliveryPerson {
		t.Errorf("SignIn role = %q, want %q", in.User.Role, RoleDeliveryPerson)
	}
	if in.AccessToken == "" || in.RefreshToken == "" {
		t.Error("SignIn returned empty tokens")
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		req    SignUpRequest
		caller *Session
		want   error
	}{
		{"bad email", SignUpRequest{Email: "nope", Password: "secret1", FullName: "A", Role: RoleDeliveryPerson}, nil, ErrInvalidInput},
		{"short password", SignUpRequest{Email: "a@b.co", Password: "123", FullName: "A", Role: RoleDeliveryPerson}, nil, ErrInvalidInput},
		{"unknown role", SignUpRequest{Email: "a@b.co", Password: "secret1", FullName: "A", Role: "owner"}, nil, ErrInvalidInput},
		{"admin without caller", SignUpRequest{Email: "a@b.co", Password: "secret1", FullName: "A", Role: RoleAdmin}, nil, ErrAdminRequired},
		{"admin by delivery person", SignUpRequest{Email: "a@b.co", Password: "secret1", FullName: "A", Role: RoleAdmin},
			&Session{State: StateAuthenticated, Role: RoleDeliveryPerson}, ErrAdminRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.SignUp(ctx, &req, tt.caller)
			if !errors.Is(err, tt.want) {
				t.Errorf("SignUp() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := svc.SignUp(ctx, &SignUpRequest{Email: "boss@b.co", Password: "secret1", FullName: "Boss", Role: RoleAdmin}, adminCaller); err != nil {
		t.Errorf("admin creating admin: %v", err)
	}
	_, err := svc.SignUp(ctx, &SignUpRequest{Email: "BOSS@b.co", Password: "secret1", FullName: "Boss", Role: RoleDeliveryPerson}, nil)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want %v", err, ErrEmailTaken)
	}
}

func TestSignUpLeavesNoOrphanIdentity(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	if err := db.Migrator().DropTable(&UserProfile{}); err != nil {
		t.Fatalf("drop users: %v", err)
	}

	_, err := svc.SignUp(ctx, &SignUpRequest{Email: "a@b.co", Password: "secret1", FullName: "A", Role: RoleDeliveryPerson}, nil)
	if err == nil {
		t.Fatal("SignUp should fail without a users table")
	}

	var count int64
	db.Model(&Identity{}).Count(&count)
	if count != 0 {
		t.Errorf("auth_identities rows = %d, want 0", count)
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, &SignUpRequest{Email: "a@b.co", Password: "secret1", FullName: "A", Role: RoleDeliveryPerson}, nil); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	tests := []struct {
		email, password string
	}{
		{"a@b.co", "wrong-pass"},
		{"nobody@b.co", "secret1"},
	}
	for _, tt := range tests {
		_, err := svc.SignIn(ctx, &SignInRequest{Email: tt.email, Password: tt.password})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("SignIn(%q, %q) error = %v, want %v", tt.email, tt.password, err, ErrInvalidCredentials)
		}
	}
}

func TestCurrentSessionStates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, &SignUpRequest{Email: "a@b.co", Password: "secret1", FullName: "A", Role: RoleDeliveryPerson}, nil)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  SessionState
	}{
		{"no token", "", StateUnauthenticated},
		{"garbage", "not-a-jwt", StateUnauthenticated},
		{"refresh token is not an access token", resp.RefreshToken, StateUnauthenticated},
		{"valid", resp.AccessToken, StateAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := svc.CurrentSession(ctx, tt.token)
			if err != nil {
				t.Fatalf("CurrentSession: %v", err)
			}
			if s.State != tt.want {
				t.Errorf("State = %q, want %q", s.State, tt.want)
			}
			if s.State == StateAuthenticated && s.Role != RoleDeliveryPerson {
				t.Errorf("authenticated session role = %q, want %q", s.Role, RoleDeliveryPerson)
			}
		})
	}
}

func TestSignOutRevokesTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, &SignUpRequest{Email: "a@b.co", Password: "secret1", FullName: "A", Role: RoleDeliveryPerson}, nil)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if err := svc.SignOut(ctx, claims); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	if _, err := svc.ValidateToken(ctx, resp.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("ValidateToken after sign-out error = %v, want %v", err, ErrTokenRevoked)
	}
	if _, err := svc.Refresh(ctx, resp.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh after sign-out error = %v, want %v", err, ErrInvalidToken)
	}
	s, _ := svc.CurrentSession(ctx, resp.AccessToken)
	if s.State != StateUnauthenticated {
		t.Errorf("session after sign-out = %q, want %q", s.State, StateUnauthenticated)
	}
}

func TestRefreshRotates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SignUp(ctx, &SignUpRequest{Email: "a@b.co", Password: "secret1", FullName: "A", Role: RoleDeliveryPerson}, nil)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("Refresh returned the same refresh token")
	}
	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reusing old refresh token error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestEnsureDefaultAdminIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seed := DefaultAdminSeed()

	created, err := svc.EnsureDefaultAdmin(ctx, seed)
	if err != nil || !created {
		t.Fatalf("first EnsureDefaultAdmin = %v, %v; want true, nil", created, err)
	}
	created, err = svc.EnsureDefaultAdmin(ctx, seed)
	if err != nil || created {
		t.Fatalf("second EnsureDefaultAdmin = %v, %v; want false, nil", created, err)
	}

	var identities, profiles int64
	db.Model(&Identity{}).Count(&identities)
	db.Model(&UserProfile{}).Count(&profiles)
	if identities != 1 || profiles != 1 {
		t.Errorf("rows = %d identities, %d profiles; want 1 and 1", identities, profiles)
	}

	resp, err := svc.SignIn(ctx, &SignInRequest{Email: seed.Email, Password: seed.Password})
	if err != nil {
		t.Fatalf("SignIn as seeded admin: %v", err)
	}
	if resp.User.Role != RoleAdmin || resp.User.FullName != "System Administrator" {
		t.Errorf("seeded admin = %+v", resp.User)
	}
}

func TestMemoryBlocklistExpires(t *testing.T) {
	b := NewMemoryBlocklist()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Revoke(ctx, "live", now.Add(time.Minute))
	_ = b.Revoke(ctx, "already-expired", now.Add(-time.Minute))

	if ok, _ := b.IsRevoked(ctx, "live"); !ok {
		t.Error("live jti should be revoked")
	}
	if ok, _ := b.IsRevoked(ctx, "already-expired"); ok {
		t.Error("expired jti should not be stored")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := b.IsRevoked(ctx, "live"); ok {
		t.Error("jti should drop off after its expiry")
	}
}

func TestDisabledAccountLosesAccessImmediately(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, &SignUpRequest{Email: "a@b.co", Password: "secret1", FullName: "A", Role: RoleDeliveryPerson}, nil)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, resp.AccessToken); err != nil {
		t.Fatalf("ValidateToken before disabling: %v", err)
	}

	if err := db.Model(&Identity{}).Where("id = ?", resp.User.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable account: %v", err)
	}

	if _, err := svc.ValidateToken(ctx, resp.AccessToken); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("ValidateToken after disabling error = %v, want %v", err, ErrAccountDisabled)
	}
	s, err := svc.CurrentSession(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if s.State != StateUnauthenticated {
		t.Errorf("session after disabling = %q, want %q", s.State, StateUnauthenticated)
	}

	app := fiber.New()
	app.Get("/me", AuthMiddleware(svc), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("GET /me with disabled account = %d, want %d", res.StatusCode, fiber.StatusUnauthorized)
	}
}

func TestCreateAccountRejectsUnknownRole(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.createAccount(context.Background(), "a@b.co", "secret1", "A", "", "owner")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("createAccount(owner) error = %v, want %v", err, ErrInvalidInput)
	}
	var n int64
	db.Model(&Identity{}).Count(&n)
	if n != 0 {
		t.Errorf("identities = %d, want 0", n)
	}
}
