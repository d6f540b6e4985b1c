package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend-foodcart/internal/models"
	"backend-foodcart/internal/monitoring"
	"backend-foodcart/internal/presence"
	"backend-foodcart/internal/queue"
	"backend-foodcart/internal/store"
)

func setupApp() (*fiber.App, *store.MemoryStore) {
	st := store.NewMemoryStore()
	gate := presence.NewGate(st, nil)
	manager := queue.NewManager(st, gate)
	h := NewQueueHandler(manager, monitoring.NewMonitor(), nil)

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		StrictRouting: true,
	})
	app.Post("/api/queue/join", h.JoinQueue)
	app.Get("/api/queue/status/:queueNumber/:vendorId", h.GetQueueStatus)
	app.Get("/api/queue/:vendorId", h.GetQueueSummary)
	app.Get("/api/vendor/:vendorId/queue", h.GetVendorQueue)
	app.Post("/api/vendor/queue/complete/:entryId", h.CompleteEntry)

	return app, st
}

func seedOpenVendor(st *store.MemoryStore) *models.Vendor {
	return st.SaveVendor(&models.Vendor{Name: "Satay cart", IsOnline: true, IsStationary: true})
}

func joinBody(vendorID int64) string {
	return fmt.Sprintf(`{
		"vendor_id": %d,
		"customer_name": "Ana",
		"items": [
			{"dish_id": 1, "name": "Chicken satay", "quantity": 2, "price": 4.50},
			{"dish_id": 2, "name": "Iced tea", "quantity": 1, "price": 3.00}
		],
		"total_amount": 12.00
	}`, vendorID)
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestJoinQueue_Success(t *testing.T) {
	app, st := setupApp()
	vendor := seedOpenVendor(st)

	code, body := doJSON(t, app, http.MethodPost, "/api/queue/join", joinBody(vendor.ID))

	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["queue_number"])
	assert.Equal(t, float64(1), body["position"])
	assert.Equal(t, float64(5), body["estimated_wait"])
}

func TestJoinQueue_MissingTotal(t *testing.T) {
	app, st := setupApp()
	vendor := seedOpenVendor(st)

	body := fmt.Sprintf(`{"vendor_id": %d, "items": [{"dish_id": 1, "name": "Satay", "quantity": 1, "price": 4.50}]}`, vendor.ID)
	code, decoded := doJSON(t, app, http.MethodPost, "/api/queue/join", body)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, decoded["success"])
}

func TestJoinQueue_EmptyItems(t *testing.T) {
	app, st := setupApp()
	vendor := seedOpenVendor(st)

	body := fmt.Sprintf(`{"vendor_id": %d, "items": [], "total_amount": 0}`, vendor.ID)
	code, decoded := doJSON(t, app, http.MethodPost, "/api/queue/join", body)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, decoded["success"])
}

func TestJoinQueue_VendorOffline(t *testing.T) {
	app, st := setupApp()
	vendor := st.SaveVendor(&models.Vendor{Name: "Closed cart", IsOnline: false})

	code, decoded := doJSON(t, app, http.MethodPost, "/api/queue/join", joinBody(vendor.ID))

	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, false, decoded["success"])
}

func TestJoinQueue_UnknownVendor(t *testing.T) {
	app, _ := setupApp()

	code, decoded := doJSON(t, app, http.MethodPost, "/api/queue/join", joinBody(99))

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, decoded["success"])
}

func TestGetQueueStatus_NotFound(t *testing.T) {
	app, st := setupApp()
	vendor := seedOpenVendor(st)

	code, decoded := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/queue/status/5/%d", vendor.ID), "")

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, decoded["success"])
}

func TestGetQueueSummary_LazyCreate(t *testing.T) {
	app, st := setupApp()
	vendor := seedOpenVendor(st)

	code, body := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/queue/%d", vendor.ID), "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(vendor.ID), body["vendor_id"])
	assert.Equal(t, float64(0), body["total_in_queue"])
	assert.Equal(t, float64(0), body["current_serving_number"])
}

func TestGetVendorQueue_NoQueue(t *testing.T) {
	app, st := setupApp()
	vendor := seedOpenVendor(st)

	code, decoded := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/vendor/%d/queue", vendor.ID), "")

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, decoded["success"])
}

// Full walk through the A/B scenario: A joins, B joins, the vendor
// completes A, and B's next status poll shows the moved-up position.
func TestScenario_CompleteMovesNextTicketUp(t *testing.T) {
	app, st := setupApp()
	vendor := seedOpenVendor(st)
	joinPath := "/api/queue/join"

	code, a := doJSON(t, app, http.MethodPost, joinPath, joinBody(vendor.ID))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(1), a["queue_number"])
	assert.Equal(t, float64(5), a["estimated_wait"])

	code, b := doJSON(t, app, http.MethodPost, joinPath, joinBody(vendor.ID))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(2), b["queue_number"])
	assert.Equal(t, float64(10), b["estimated_wait"])

	// Resolve A's entry id from the vendor board.
	code, board := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/vendor/%d/queue", vendor.ID), "")
	require.Equal(t, http.StatusOK, code)
	entries := board["entries"].([]any)
	require.Len(t, entries, 2)
	entryID := int64(entries[0].(map[string]any)["id"].(float64))

	completePath := fmt.Sprintf("/api/vendor/queue/complete/%d", entryID)
	code, completed := doJSON(t, app, http.MethodPost, completePath, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, completed["success"])

	// Completing again is a safe no-op.
	code, again := doJSON(t, app, http.MethodPost, completePath, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, again["success"])
	assert.Equal(t, "Entry already completed", again["message"])

	code, status := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/queue/status/2/%d", vendor.ID), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), status["position"])
	assert.Equal(t, float64(5), status["estimated_wait"])
	assert.Equal(t, models.StatusWaiting, status["status"])

	amount, err := decimal.NewFromString(status["total_amount"].(string))
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("12.00")))

	items := status["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Chicken satay", items[0].(map[string]any)["name"])
}
