package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/services"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder godoc
// @Summary Create an order
// @Description Creates the order, its items and its delivery assignment in one transaction.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body models.CreateOrderRequest true "Order"
// @Success 201 {object} models.Order
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/orders [post]
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req models.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orderService.CreateOrder(c.UserContext(), actor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// ListOrders godoc
// @Summary List orders
// @Description Orders with customer, items and assignment, newest first.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Order status"
// @Param from query string false "Created at or after (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Created before (RFC3339 or YYYY-MM-DD)"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.OrderListResponse
// @Router /api/orders [get]
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	filter := models.OrderFilter{
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}
	if raw := c.Query("status"); raw != "" {
		st, err := models.ParseOrderStatus(raw)
		if err != nil {
			return respondError(c, services.ErrInvalidStatus)
		}
		filter.Status = &st
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return badRequest(c, "Invalid from date")
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return badRequest(c, "Invalid to date")
	}

	resp, err := h.orderService.ListOrders(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetOrder godoc
// @Summary Get order details
// @Description Admins see any order. A delivery person sees orders assigned to them.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	order, err := h.orderService.GetOrder(c.UserContext(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// UpdateOrder godoc
// @Summary Edit order details
// @Description Changes delivery date and profit. Status has its own endpoint.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param order body models.UpdateOrderRequest true "Fields to change"
// @Success 200 {object} models.Order
// @Router /api/orders/{id} [patch]
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	var req models.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orderService.UpdateOrder(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// DeleteOrder godoc
// @Summary Delete an order
// @Tags Orders
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	if err := h.orderService.DeleteOrder(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order deleted successfully"})
}

// UpdateStatus godoc
// @Summary Update order status
// @Description Moves the order along its lifecycle and appends a history row. Delivery persons cannot cancel.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param status body models.UpdateStatusRequest true "New status"
// @Success 200 {object} models.Order
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	var req models.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orderService.UpdateStatus(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// Reassign godoc
// @Summary Reassign order
// @Description Hands a pending or assigned order to another active delivery person.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param assignment body models.ReassignRequest true "Delivery person"
// @Success 200 {object} models.Order
// @Failure 409 {object} map[string]interface{}
// @Router /api/orders/{id}/assignment [put]
func (h *OrderHandler) Reassign(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	var req models.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orderService.Reassign(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// GetHistory godoc
// @Summary Order status history
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {array} models.OrderStatusHistory
// @Router /api/orders/{id}/history [get]
func (h *OrderHandler) GetHistory(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	history, err := h.orderService.GetHistory(c.UserContext(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"history": history})
}

// ListMyOrders godoc
// @Summary My assigned orders
// @Description Orders assigned to the calling delivery person, newest first.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Order status"
// @Success 200 {object} map[string]interface{}
// @Router /api/my/orders [get]
func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	orders, err := h.orderService.ListMyOrders(c.UserContext(), actor(c), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders, "total": len(orders)})
}
