package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"

	controller "leadpilot/controllers"
	"leadpilot/middleware"
	"leadpilot/repository"
	"leadpilot/utils"
)

// Dependencies bundles the shared services the route handlers need.
type Dependencies struct {
	Leads      *repository.LeadRepository
	Activities *repository.ActivityRecorder
	Suggester  *utils.Suggester
	Feed       *controller.ActivityBroadcaster
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	// Initialize controllers with their respective loggers
	leadController := controller.NewLeadController(deps.Leads, log.New(os.Stdout, "LEAD: ", log.LstdFlags))
	activityController := controller.NewActivityController(deps.Activities, log.New(os.Stdout, "ACTIVITY: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(deps.Leads, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))
	suggestionController := controller.NewSuggestionController(deps.Suggester, deps.Leads, log.New(os.Stdout, "AI: ", log.LstdFlags))

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API group with logging middleware
	api := app.Group("/api/v1", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Lead routes
	lead := api.Group("/leads")
	lead.Get("/", leadController.GetLeads)
	lead.Post("/", leadController.CreateLead)
	lead.Get("/:id", leadController.GetLead)
	lead.Put("/:id", leadController.UpdateLead)
	lead.Delete("/:id", leadController.DeleteLead)
	lead.Put("/:id/status", leadController.UpdateLeadStatus)
	lead.Post("/:id/conversations", leadController.LogConversation)
	lead.Put("/:id/conversations/:conversationId/reminder", leadController.UpdateConversationReminder)

	// Activity log routes
	api.Get("/activities", activityController.GetActivities)

	// Dashboard and derived-view routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetDashboardStats)
	api.Get("/followups", dashboardController.GetFollowUps)
	api.Get("/calendar", dashboardController.GetCalendar)

	// AI suggestion routes with rate limiting
	ai := api.Group("/ai", middleware.AIRateLimiter())
	ai.Post("/suggest-next-steps", suggestionController.SuggestNextSteps)
	ai.Post("/suggest-summary", suggestionController.SuggestSummary)

	// WebSocket route for the live activity feed
	app.Get("/ws/activities", websocket.New(func(c *websocket.Conn) {
		deps.Feed.HandleActivityFeed(c)
	}))

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	log.Println("API routes initialized successfully")
}
