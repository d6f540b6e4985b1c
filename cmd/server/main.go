package main

import (
	"log"
	"runtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backend-foodcart/internal/config"
	"backend-foodcart/internal/http/handler"
	"backend-foodcart/internal/monitoring"
	"backend-foodcart/internal/presence"
	"backend-foodcart/internal/queue"
	"backend-foodcart/internal/store"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
	})

	config.LoadEnv()
	config.InitRedis()
	config.InitDB()
	defer config.CloseDB()

	var st store.Store
	if config.DB != nil {
		sqlStore := store.NewSQLStore(config.DB)
		if err := sqlStore.EnsureSchema(config.Ctx); err != nil {
			log.Fatal("Schema init failed:", err)
		}
		st = sqlStore
	} else {
		log.Println("Running with in-memory store")
		st = store.NewMemoryStore()
	}

	gate := presence.NewGate(st, config.Redis)
	manager := queue.NewManager(st, gate)
	monitor := monitoring.NewMonitor()
	socket := handler.NewQueueSocket(manager)
	queueHandler := handler.NewQueueHandler(manager, monitor, socket)

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Foodcart queue API up",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := config.Redis.Ping(c.Context()).Err(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		if config.DB != nil {
			if err := config.DB.PingContext(c.Context()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Customer-facing queue endpoints
	app.Post("/api/queue/join", queueHandler.JoinQueue)
	app.Get("/api/queue/status/:queueNumber/:vendorId", queueHandler.GetQueueStatus)
	app.Get("/api/queue/:vendorId", queueHandler.GetQueueSummary)

	// Vendor-facing endpoints
	app.Get("/api/vendor/:vendorId/queue", queueHandler.GetVendorQueue)
	app.Post("/api/vendor/queue/complete/:entryId", queueHandler.CompleteEntry)

	// Live vendor board
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/vendor/:vendorId/queue", websocket.New(socket.Serve))

	addr := config.GetEnv("APP_HOST", "") + ":" + config.GetEnv("APP_PORT", "8080")
	log.Println("Server listening on", addr)
	log.Fatal(app.Listen(addr))
}
