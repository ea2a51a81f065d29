package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/services"
)

type DeliveryPersonHandler struct {
	personService *services.DeliveryPersonService
}

func NewDeliveryPersonHandler(personService *services.DeliveryPersonService) *DeliveryPersonHandler {
	return &DeliveryPersonHandler{personService: personService}
}

// CreateDeliveryPerson godoc
// @Summary Create a delivery person
// @Description user_id optionally links a delivery_person login.
// @Tags Delivery Persons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param person body models.CreateDeliveryPersonRequest true "Delivery person data"
// @Success 201 {object} models.DeliveryPerson
// @Failure 400 {object} map[string]interface{}
// @Router /api/delivery-persons [post]
func (h *DeliveryPersonHandler) CreateDeliveryPerson(c *fiber.Ctx) error {
	var req models.CreateDeliveryPersonRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	person, err := h.personService.CreateDeliveryPerson(c.UserContext(), actor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(person)
}

// GetDeliveryPerson godoc
// @Summary Get delivery person by ID
// @Tags Delivery Persons
// @Produce json
// @Security BearerAuth
// @Param id path string true "Delivery person ID"
// @Success 200 {object} models.DeliveryPerson
// @Router /api/delivery-persons/{id} [get]
func (h *DeliveryPersonHandler) GetDeliveryPerson(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid delivery person ID")
	}

	person, err := h.personService.GetDeliveryPerson(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(person)
}

// ListDeliveryPersons godoc
// @Summary List delivery persons
// @Tags Delivery Persons
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search name or phone"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.DeliveryPersonListResponse
// @Router /api/delivery-persons [get]
func (h *DeliveryPersonHandler) ListDeliveryPersons(c *fiber.Ctx) error {
	filter := models.DeliveryPersonFilter{
		SearchTerm: c.Query("search"),
		Page:       queryInt(c, "page"),
		PageSize:   queryInt(c, "page_size"),
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "active must be true or false")
		}
		filter.IsActive = &active
	}

	resp, err := h.personService.ListDeliveryPersons(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// UpdateDeliveryPerson godoc
// @Summary Update a delivery person
// @Tags Delivery Persons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Delivery person ID"
// @Param person body models.UpdateDeliveryPersonRequest true "Fields to change"
// @Success 200 {object} models.DeliveryPerson
// @Router /api/delivery-persons/{id} [put]
func (h *DeliveryPersonHandler) UpdateDeliveryPerson(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid delivery person ID")
	}

	var req models.UpdateDeliveryPersonRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	person, err := h.personService.UpdateDeliveryPerson(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(person)
}

// DeleteDeliveryPerson godoc
// @Summary Delete a delivery person
// @Tags Delivery Persons
// @Security BearerAuth
// @Param id path string true "Delivery person ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/delivery-persons/{id} [delete]
func (h *DeliveryPersonHandler) DeleteDeliveryPerson(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid delivery person ID")
	}

	if err := h.personService.DeleteDeliveryPerson(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Delivery person deleted successfully"})
}
