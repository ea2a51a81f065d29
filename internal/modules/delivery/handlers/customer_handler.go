package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/services"
)

type CustomerHandler struct {
	customerService *services.CustomerService
}

func NewCustomerHandler(customerService *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CreateCustomer godoc
// @Summary Create a customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param customer body models.CreateCustomerRequest true "Customer data"
// @Success 201 {object} models.Customer
// @Failure 400 {object} map[string]interface{}
// @Router /api/customers [post]
func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req models.CreateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	customer, err := h.customerService.CreateCustomer(c.UserContext(), actor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// GetCustomer godoc
// @Summary Get customer by ID
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} models.Customer
// @Failure 404 {object} map[string]interface{}
// @Router /api/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid customer ID")
	}

	customer, err := h.customerService.GetCustomer(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(customer)
}

// ListCustomers godoc
// @Summary List customers
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search name, shop or phone"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.CustomerListResponse
// @Router /api/customers [get]
func (h *CustomerHandler) ListCustomers(c *fiber.Ctx) error {
	resp, err := h.customerService.ListCustomers(c.UserContext(), models.CustomerFilter{
		SearchTerm: c.Query("search"),
		Page:       queryInt(c, "page"),
		PageSize:   queryInt(c, "page_size"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// UpdateCustomer godoc
// @Summary Update a customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Param customer body models.UpdateCustomerRequest true "Fields to change"
// @Success 200 {object} models.Customer
// @Router /api/customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid customer ID")
	}

	var req models.UpdateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	customer, err := h.customerService.UpdateCustomer(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(customer)
}

// DeleteCustomer godoc
// @Summary Delete a customer
// @Description Soft delete. Existing orders keep showing the customer.
// @Tags Customers
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid customer ID")
	}

	if err := h.customerService.DeleteCustomer(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Customer deleted successfully"})
}
