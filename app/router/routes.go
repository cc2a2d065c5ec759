// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/handlers"
	"github.com/mercat-labs/loyalty-platform/app/middleware"
	"github.com/mercat-labs/loyalty-platform/config"
	"github.com/mercat-labs/loyalty-platform/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	Shutdown() error
	GetApp() *fiber.App
}

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth         handlers.AuthHandlerInterface
	Admin        handlers.AdminHandlerInterface
	MarketStore  handlers.MarketStoreHandlerInterface
	Ticket       handlers.TicketHandlerInterface
	Purchase     handlers.PurchaseHandlerInterface
	Gamification handlers.GamificationHandlerInterface
	Reward       handlers.RewardHandlerInterface
	Notification handlers.NotificationHandlerInterface
	CRM          handlers.CRMHandlerInterface
	Sender       handlers.SenderHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app  *fiber.App
	cfg  *config.Config
	h    Handlers
	auth *middleware.AuthMiddleware
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.Config, h Handlers, auth *middleware.AuthMiddleware) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Loyalty Platform API",
		ServerHeader: "loyalty-platform",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ProxyHeader:  cfg.Server.ProxyHeader,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:  app,
		cfg:  cfg,
		h:    h,
		auth: auth,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	if r.cfg.Server.EnableMetrics {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		r.app.Get("/metrics", func(c fiber.Ctx) error {
			metricsHandler(c.RequestCtx())
			return nil
		})
	}

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// General rate limiting for all API routes
	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.AuthRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	}))

	auth.Post("/register", r.h.Auth.Register)
	auth.Post("/login", r.h.Auth.Login)
	auth.Post("/verify", r.h.Auth.Verify)
	auth.Post("/refresh", r.h.Auth.Refresh)

	authenticated := r.auth.Authenticate()
	vendorOnly := r.auth.RequireVendor()
	adminOnly := r.auth.RequireAdmin()

	// Current user
	users := api.Group("/users", authenticated)
	users.Get("/me", r.h.Auth.Me)
	users.Put("/me", r.h.Auth.UpdatePreferences)

	// Administration
	admin := api.Group("/admin", authenticated, adminOnly)
	admin.Get("/users", r.h.Admin.ListUsers)
	admin.Put("/users/:id/role", r.h.Admin.PromoteUser)
	admin.Get("/overview", r.h.Admin.Overview)
	admin.Get("/overview/export", r.h.Admin.ExportOverview)

	// Merchant roster
	stores := api.Group("/market-stores", authenticated)
	stores.Get("/", r.h.MarketStore.List)
	stores.Get("/verify", r.h.MarketStore.VerifyName)
	stores.Get("/:id", r.h.MarketStore.Get)
	stores.Post("/", r.h.MarketStore.Create, adminOnly)
	stores.Put("/:id", r.h.MarketStore.Update, adminOnly)
	stores.Delete("/:id", r.h.MarketStore.Deactivate, adminOnly)

	// Tickets
	tickets := api.Group("/tickets", authenticated)
	tickets.Post("/upload", r.h.Ticket.Upload)
	tickets.Post("/digital", r.h.Ticket.CreateDigital, vendorOnly)
	tickets.Post("/check-duplicate", r.h.Ticket.CheckDuplicate)
	tickets.Get("/", r.h.Ticket.History)
	tickets.Get("/pending", r.h.Ticket.ListPending, adminOnly)
	tickets.Post("/process-pending", r.h.Ticket.ProcessPending, adminOnly)
	tickets.Get("/:id", r.h.Ticket.Get)
	tickets.Post("/:id/process", r.h.Ticket.Process, adminOnly)

	// Purchase history
	purchases := api.Group("/purchase-history", authenticated)
	purchases.Get("/", r.h.Purchase.History)
	purchases.Get("/summary", r.h.Purchase.Summary)
	purchases.Get("/spending", r.h.Purchase.Spending)

	// Gamification
	gamification := api.Group("/gamification", authenticated)
	gamification.Get("/profile", r.h.Gamification.Profile)
	gamification.Get("/stats", r.h.Gamification.Stats)
	gamification.Get("/badges", r.h.Gamification.Badges)
	gamification.Get("/experience", r.h.Gamification.ExperienceLog)
	gamification.Get("/leaderboard", r.h.Gamification.Leaderboard)
	gamification.Post("/users/:id/experience", r.h.Gamification.AddExperience, adminOnly)
	gamification.Post("/users/:id/reset", r.h.Gamification.ResetProfile, adminOnly)

	// Reward catalog and redemption codes
	gamification.Get("/rewards", r.h.Reward.ListRewards)
	gamification.Post("/rewards", r.h.Reward.CreateReward, adminOnly)
	gamification.Delete("/rewards/:id", r.h.Reward.DeactivateReward, adminOnly)
	gamification.Post("/rewards/:id/redeem", r.h.Reward.Redeem)
	gamification.Get("/redemptions", r.h.Reward.ListRedemptions)
	gamification.Get("/codes/:code", r.h.Reward.ValidateCode, vendorOnly)
	gamification.Post("/codes/:code/use", r.h.Reward.UseCode, vendorOnly)
	gamification.Post("/codes/:code/expire", r.h.Reward.ExpireCode, adminOnly)

	// Special rewards
	gamification.Get("/special-rewards", r.h.Reward.ListSpecialRewards)
	gamification.Post("/special-rewards", r.h.Reward.CreateSpecialReward, adminOnly)
	gamification.Post("/special-rewards/:id/distribute", r.h.Reward.DistributeSpecialReward, adminOnly)
	gamification.Post("/special-rewards/:id/redeem", r.h.Reward.RedeemSpecialReward)

	// In-app notifications
	notifications := api.Group("/notifications", authenticated)
	notifications.Get("/", r.h.Notification.List)
	notifications.Get("/stats", r.h.Notification.Stats)
	notifications.Post("/read-all", r.h.Notification.MarkAllRead)
	notifications.Post("/:id/read", r.h.Notification.MarkRead)

	// CRM
	crm := api.Group("/crm", authenticated, adminOnly)
	crm.Post("/segments", r.h.CRM.CreateSegment)
	crm.Get("/segments", r.h.CRM.ListSegments)
	crm.Get("/segments/:id", r.h.CRM.GetSegment)
	crm.Delete("/segments/:id", r.h.CRM.DeactivateSegment)
	crm.Get("/segments/:id/preview", r.h.CRM.PreviewSegment)
	crm.Post("/campaigns", r.h.CRM.CreateCampaign)
	crm.Get("/campaigns", r.h.CRM.ListCampaigns)
	crm.Get("/campaigns/:id", r.h.CRM.GetCampaign)
	crm.Delete("/campaigns/:id", r.h.CRM.DeactivateCampaign)
	crm.Get("/campaigns/:id/preview", r.h.CRM.PreviewCampaign)
	crm.Post("/campaigns/:id/dispatch", r.h.CRM.DispatchCampaign)
	crm.Post("/campaigns/:id/send", r.h.CRM.SendCampaign)
	crm.Get("/notifications", r.h.CRM.ListCampaignNotifications)
	crm.Post("/notifications/:id/mark-sent", r.h.CRM.MarkNotificationSent)
	crm.Post("/preferences/infer-all", r.h.CRM.InferAllPreferences)
	crm.Post("/preferences/infer-recent", r.h.CRM.InferRecentPreferences)
	crm.Get("/preferences/summary", r.h.CRM.PreferencesSummary)
	crm.Get("/preferences/:id", r.h.CRM.GetPreferences)

	// Outbound delivery
	sender := api.Group("/sender", authenticated)
	sender.Post("/send", r.h.Sender.Send, adminOnly)
	sender.Post("/send-batch", r.h.Sender.SendBatch, adminOnly)
	sender.Get("/notifications/:id", r.h.Sender.Status, adminOnly)
	sender.Get("/stats", r.h.Sender.Stats, adminOnly)
	sender.Post("/subscriptions", r.h.Sender.Subscribe)
	sender.Get("/subscriptions", r.h.Sender.ListSubscriptions)
	sender.Delete("/subscriptions/:id", r.h.Sender.Unsubscribe)

	// 404 handler - must be last
	r.app.Use(r.notFoundHandler)
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// CORS
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.Security.AllowedOrigins,
		AllowMethods: r.cfg.Security.AllowedMethods,
		AllowHeaders: r.cfg.Security.AllowedHeaders,
		ExposeHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: r.cfg.Security.AllowCredentials,
	}))

	// Compression
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			contentType := c.Get("Content-Type")
			return strings.Contains(contentType, "image/")
		},
	}))

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","status":${status},"latency":"${latency}","bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health" || c.Path() == "/metrics"
		},
	}))

	// Prometheus HTTP metrics
	if r.cfg.Server.EnableMetrics {
		r.app.Use(middleware.Metrics())
	}

	// Panic recovery
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// Shutdown gracefully stops the HTTP server
func (r *FiberRouter) Shutdown() error {
	return r.app.Shutdown()
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Format(time.RFC3339),
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":   c.Path(),
				"method": c.Method(),
			},
		},
	})
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
