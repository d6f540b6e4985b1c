package handler

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"backend-foodcart/internal/models"
	"backend-foodcart/internal/monitoring"
	"backend-foodcart/internal/queue"
)

type QueueHandler struct {
	manager *queue.Manager
	monitor *monitoring.Monitor
	socket  *QueueSocket
}

func NewQueueHandler(manager *queue.Manager, monitor *monitoring.Monitor, socket *QueueSocket) *QueueHandler {
	return &QueueHandler{
		manager: manager,
		monitor: monitor,
		socket:  socket,
	}
}

// JoinQueueRequest - Request body for reserving a place in line.
// TotalAmount is a pointer so a missing total can be told apart from zero.
type JoinQueueRequest struct {
	VendorID     int64              `json:"vendor_id"`
	CustomerName string             `json:"customer_name"`
	Items        []models.OrderItem `json:"items"`
	TotalAmount  *decimal.Decimal   `json:"total_amount"`
}

// JoinQueue - Endpoint for customers to join a vendor's line
func (h *QueueHandler) JoinQueue(c *fiber.Ctx) error {
	var req JoinQueueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.VendorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "vendor_id is required",
		})
	}
	if req.TotalAmount == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "total_amount is required",
		})
	}

	result, err := h.manager.Join(c.Context(), queue.JoinRequest{
		VendorID:     req.VendorID,
		CustomerName: req.CustomerName,
		Items:        req.Items,
		TotalAmount:  *req.TotalAmount,
	})

	if err != nil {
		h.monitor.TrackJoin(req.VendorID, "rejected")

		switch {
		case errors.Is(err, queue.ErrEmptyItems):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "items must not be empty",
			})
		case errors.Is(err, queue.ErrInvalidAmount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "total_amount must be non-negative",
			})
		case errors.Is(err, queue.ErrVendorNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Vendor not found",
			})
		case errors.Is(err, queue.ErrVendorClosed):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "Vendor is not accepting orders right now",
			})
		default:
			log.Printf("[JoinQueue] Error joining queue: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to join queue",
			})
		}
	}

	h.monitor.TrackJoin(req.VendorID, "accepted")
	// Position at admission equals the waiting count, every waiting ticket
	// has a smaller number.
	h.monitor.SetWaitingLength(req.VendorID, result.Position)

	if h.socket != nil {
		h.socket.BroadcastVendor(req.VendorID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":        true,
		"message":        "Joined the queue",
		"queue_number":   result.QueueNumber,
		"position":       result.Position,
		"estimated_wait": result.EstimatedWait,
	})
}

func parseID(c *fiber.Ctx, name string) (int64, error) {
	return strconv.ParseInt(c.Params(name), 10, 64)
}
