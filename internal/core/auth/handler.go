package auth

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
)

// SetupOptions guards the provisioning endpoint. An empty Key disables it.
type SetupOptions struct {
	Key  string
	Seed AdminSeed
}

type Handler struct {
	authService *Service
	audit       *audit.Service
	setup       SetupOptions
}

// NewHandler creates a new auth handler
func NewHandler(authService *Service, auditService *audit.Service, setup SetupOptions) *Handler {
	return &Handler{
		authService: authService,
		audit:       auditService,
		setup:       setup,
	}
}

func authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenRevoked):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	case errors.Is(err, ErrAdminRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("❌ auth request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// SignUp godoc
// @Summary Register new user
// @Description Create an identity and profile. Creating an admin requires an admin bearer token.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Registration details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/signup [post]
func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Role == "" {
		req.Role = RoleDeliveryPerson
	}

	var caller *Session
	if claims := Claims(c); claims != nil {
		caller = &Session{State: StateAuthenticated, Role: claims.Role}
	}

	resp, err := h.authService.SignUp(c.UserContext(), &req, caller)
	if err != nil {
		return authError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// SignIn godoc
// @Summary Sign in with email and password
// @Description Authenticate user and return JWT tokens together with the user's role
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/signin [post]
func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.authService.SignIn(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			log.Warn().Str("email", req.Email).Msg("❌ Sign-in failed")
		}
		return authError(c, err)
	}

	if id, err := uuid.Parse(resp.User.ID); err == nil {
		h.audit.Record(c.UserContext(), audit.Entry{
			ActorID:   &id,
			ActorRole: resp.User.Role,
			Action:    audit.ActionSignIn,
			Entity:    "user",
			EntityID:  resp.User.ID,
		})
	}

	return c.JSON(resp)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Rotate the access and refresh tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/refresh [post]
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "refresh_token is required",
		})
	}

	resp, err := h.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(resp)
}

// SignOut godoc
// @Summary Sign out
// @Description Revoke the refresh token and the current access token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/signout [post]
func (h *Handler) SignOut(c *fiber.Ctx) error {
	claims := Claims(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	if err := h.authService.SignOut(c.UserContext(), claims); err != nil {
		return authError(c, err)
	}

	if id, ok := UserID(c); ok {
		h.audit.Record(c.UserContext(), audit.Entry{
			ActorID:   &id,
			ActorRole: claims.Role,
			Action:    audit.ActionSignOut,
			Entity:    "user",
			EntityID:  claims.UserID,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Signed out successfully",
	})
}

// Session godoc
// @Summary Current session
// @Description Resolve the bearer token to unauthenticated or authenticated (with role)
// @Tags Authentication
// @Produce json
// @Success 200 {object} Session
// @Router /api/auth/session [get]
func (h *Handler) Session(c *fiber.Ctx) error {
	token, _ := bearerToken(c)
	session, err := h.authService.CurrentSession(c.UserContext(), token)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(session)
}

// SetupAdmin godoc
// @Summary Provision the default admin
// @Description Idempotently create the configured admin account. Requires the X-Setup-Key header.
// @Tags Setup
// @Produce json
// @Param X-Setup-Key header string true "Setup key"
// @Success 200 {object} map[string]interface{}
// @Success 201 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/setup/admin [post]
func (h *Handler) SetupAdmin(c *fiber.Ctx) error {
	if h.setup.Key == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Setup endpoint is disabled",
		})
	}
	if subtle.ConstantTimeCompare([]byte(c.Get("X-Setup-Key")), []byte(h.setup.Key)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid setup key",
		})
	}

	created, err := h.authService.EnsureDefaultAdmin(c.UserContext(), h.setup.Seed)
	if err != nil {
		return authError(c, err)
	}

	if !created {
		return c.JSON(fiber.Map{
			"message": "Admin account already exists",
			"email":   normalizeEmail(h.setup.Seed.Email),
			"created": false,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Admin account created",
		"email":   normalizeEmail(h.setup.Seed.Email),
		"created": true,
	})
}
