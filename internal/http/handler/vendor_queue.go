package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"backend-foodcart/internal/models"
	"backend-foodcart/internal/queue"
)

// GetVendorQueue - Vendor-facing board: the queue plus every non-terminal
// entry in serving order.
func (h *QueueHandler) GetVendorQueue(c *fiber.Ctx) error {
	vendorID, err := parseID(c, "vendorId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid vendor id",
		})
	}

	q, entries, err := h.manager.VendorQueue(c.Context(), vendorID)
	if err != nil {
		if errors.Is(err, queue.ErrQueueNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "No active queue for this vendor",
			})
		}
		log.Printf("[GetVendorQueue] Error reading queue: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to read vendor queue",
		})
	}

	if entries == nil {
		entries = []models.QueueEntry{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"queue":   q,
		"entries": entries,
	})
}

// CompleteEntry - Marks an entry completed. Calling it twice is safe: the
// second call reports the entry as already completed without changing it.
func (h *QueueHandler) CompleteEntry(c *fiber.Ctx) error {
	entryID, err := parseID(c, "entryId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid entry id",
		})
	}

	entry, err := h.manager.Complete(c.Context(), entryID)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrAlreadyCompleted):
			return c.JSON(fiber.Map{
				"success": true,
				"message": "Entry already completed",
			})
		case errors.Is(err, queue.ErrTicketNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Entry not found",
			})
		default:
			log.Printf("[CompleteEntry] Error completing entry: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to complete entry",
			})
		}
	}

	vendorID, err := h.manager.VendorForQueue(c.Context(), entry.QueueID)
	if err == nil {
		h.monitor.TrackCompletion(vendorID)
		if summary, serr := h.manager.Summary(c.Context(), vendorID); serr == nil {
			h.monitor.SetWaitingLength(vendorID, summary.TotalInQueue)
		}
		if h.socket != nil {
			h.socket.BroadcastVendor(vendorID)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Entry marked as completed",
	})
}
