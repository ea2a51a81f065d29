package audit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetLogs godoc
// @Summary Query audit logs
// @Description Audit entries newest first. Dates are RFC3339.
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param actor_id query string false "Actor user ID"
// @Param action query string false "create, update, delete, status_change or assign"
// @Param entity query string false "product, customer, delivery_person, order or user"
// @Param entity_id query string false "Entity ID"
// @Param start_date query string false "From (inclusive)"
// @Param end_date query string false "To (inclusive)"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(50)
// @Success 200 {object} AuditLogResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/audit-logs [get]
func (h *Handler) GetLogs(c *fiber.Ctx) error {
	filter := AuditFilter{
		Action:   c.Query("action"),
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("page_size"))

	if raw := c.Query("actor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid actor_id"})
		}
		filter.ActorID = &id
	}
	for key, dst := range map[string]**time.Time{"start_date": &filter.StartDate, "end_date": &filter.EndDate} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + key})
		}
		*dst = &t
	}

	resp, err := h.service.GetLogs(c.UserContext(), filter)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to query audit logs")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.JSON(resp)
}
