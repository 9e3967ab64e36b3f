package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"leadpilot/repository"
	"leadpilot/utils"
)

type ActivityController struct {
	Recorder *repository.ActivityRecorder
	Logger   *log.Logger
}

func NewActivityController(recorder *repository.ActivityRecorder, logger *log.Logger) *ActivityController {
	return &ActivityController{
		Recorder: recorder,
		Logger:   logger,
	}
}

// GetActivities returns the full audit trail, newest first
func (ac *ActivityController) GetActivities(c *fiber.Ctx) error {
	activities, err := ac.Recorder.List(c.Context())
	if err != nil {
		return repoErrorResponse(c, err, "Failed to fetch activities")
	}
	return c.JSON(utils.SuccessResponse(activities))
}
