package handler

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"backend-foodcart/internal/queue"
)

// GetQueueStatus - Endpoint for a customer's ticket view. Position and wait
// estimate are recomputed on every call.
func (h *QueueHandler) GetQueueStatus(c *fiber.Ctx) error {
	queueNumber, err := strconv.Atoi(c.Params("queueNumber"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid queue number",
		})
	}

	vendorID, err := parseID(c, "vendorId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid vendor id",
		})
	}

	h.monitor.TrackStatusRead()

	status, err := h.manager.Status(c.Context(), vendorID, queueNumber)
	if err != nil {
		if errors.Is(err, queue.ErrTicketNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Ticket not found",
			})
		}
		log.Printf("[GetQueueStatus] Error reading status: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to read ticket status",
		})
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"queue_number":   status.QueueNumber,
		"position":       status.Position,
		"estimated_wait": status.EstimatedWait,
		"status":         status.Status,
		"items":          status.Items,
		"total_amount":   status.TotalAmount,
	})
}

// GetQueueSummary - Endpoint for the vendor's queue overview. Creates the
// queue lazily on first access.
func (h *QueueHandler) GetQueueSummary(c *fiber.Ctx) error {
	vendorID, err := parseID(c, "vendorId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid vendor id",
		})
	}

	summary, err := h.manager.Summary(c.Context(), vendorID)
	if err != nil {
		if errors.Is(err, queue.ErrVendorNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Vendor not found",
			})
		}
		log.Printf("[GetQueueSummary] Error reading summary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to read queue summary",
		})
	}

	return c.JSON(fiber.Map{
		"success":                true,
		"queue_id":               summary.QueueID,
		"vendor_id":              summary.VendorID,
		"current_serving_number": summary.CurrentServingNumber,
		"total_in_queue":         summary.TotalInQueue,
		"estimated_wait":         summary.EstimatedWait,
	})
}
