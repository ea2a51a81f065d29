package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	db      *sql.DB
	storage string
}

// NewHealthHandler reports liveness plus a database ping. storage names the
// report storage provider.
func NewHealthHandler(db *sql.DB, storage string) *HealthHandler {
	return &HealthHandler{db: db, storage: storage}
}

// GetHealth godoc
// @Summary Service health check
// @Description Check if API is alive and the database answers
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"database": "unreachable",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"service":  "stock-delivery-api",
		"database": "ok",
		"storage":  h.storage,
	})
}
