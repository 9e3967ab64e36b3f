package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"leadpilot/repository"
	"leadpilot/utils"
)

type DashboardController struct {
	Repo   *repository.LeadRepository
	Logger *log.Logger
}

func NewDashboardController(repo *repository.LeadRepository, logger *log.Logger) *DashboardController {
	return &DashboardController{
		Repo:   repo,
		Logger: logger,
	}
}

// GetDashboardStats returns summary statistics for the dashboard cards
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	leads, err := dc.Repo.List(c.Context())
	if err != nil {
		return repoErrorResponse(c, err, "Failed to fetch leads")
	}
	return c.JSON(utils.SuccessResponse(utils.ComputeDashboardStats(leads)))
}

// GetFollowUps returns upcoming reminders bucketed into Today/Tomorrow/Later
func (dc *DashboardController) GetFollowUps(c *fiber.Ctx) error {
	leads, err := dc.Repo.List(c.Context())
	if err != nil {
		return repoErrorResponse(c, err, "Failed to fetch leads")
	}

	now := time.Now()
	items := utils.BuildFollowUpList(leads, now)
	return c.JSON(utils.SuccessResponse(utils.CategorizeFollowUps(items, now)))
}

// GetCalendar returns every reminder keyed by calendar day. Past reminders
// stay visible here, unlike the follow-up list.
func (dc *DashboardController) GetCalendar(c *fiber.Ctx) error {
	leads, err := dc.Repo.List(c.Context())
	if err != nil {
		return repoErrorResponse(c, err, "Failed to fetch leads")
	}
	return c.JSON(utils.SuccessResponse(utils.GroupFollowUpsByDay(leads, time.Local)))
}
