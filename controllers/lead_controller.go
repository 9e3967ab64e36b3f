package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"leadpilot/repository"
	"leadpilot/utils"
)

type LeadController struct {
	Repo   *repository.LeadRepository
	Logger *log.Logger
}

func NewLeadController(repo *repository.LeadRepository, logger *log.Logger) *LeadController {
	return &LeadController{
		Repo:   repo,
		Logger: logger,
	}
}

// GetLeads returns all leads, newest first
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	leads, err := lc.Repo.List(c.Context())
	if err != nil {
		return repoErrorResponse(c, err, "Failed to fetch leads")
	}
	return c.JSON(utils.SuccessResponse(leads))
}

// GetLead returns a single lead by ID
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	lead, err := lc.Repo.Get(c.Context(), c.Params("id"))
	if err != nil {
		return repoErrorResponse(c, err, "Failed to fetch lead")
	}
	return c.JSON(utils.SuccessResponse(lead))
}

// CreateLead creates a new lead with validation
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var input struct {
		Name               string `json:"name" validate:"required,max=200"`
		Email              string `json:"email" validate:"required,email"`
		LinkedinProfileURL string `json:"linkedinProfileUrl" validate:"omitempty,url"`
		Company            string `json:"company" validate:"omitempty,max=200"`
		Notes              string `json:"notes"`
		Tags               string `json:"tags"`
		Status             string `json:"status"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := lc.Repo.Create(c.Context(), repository.LeadInput{
		Name:               input.Name,
		Email:              input.Email,
		LinkedinProfileURL: input.LinkedinProfileURL,
		Company:            input.Company,
		Notes:              input.Notes,
		Tags:               input.Tags,
		Status:             input.Status,
	})
	if err != nil {
		return repoErrorResponse(c, err, "Failed to create lead")
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(lead))
}

// UpdateLead applies a partial update to a lead
func (lc *LeadController) UpdateLead(c *fiber.Ctx) error {
	var input struct {
		Name               *string `json:"name" validate:"omitempty,max=200"`
		Email              *string `json:"email" validate:"omitempty,email"`
		LinkedinProfileURL *string `json:"linkedinProfileUrl" validate:"omitempty,url"`
		Company            *string `json:"company" validate:"omitempty,max=200"`
		Notes              *string `json:"notes"`
		Tags               *string `json:"tags"`
		Status             *string `json:"status"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := lc.Repo.Update(c.Context(), c.Params("id"), repository.LeadUpdate{
		Name:               input.Name,
		Email:              input.Email,
		LinkedinProfileURL: input.LinkedinProfileURL,
		Company:            input.Company,
		Notes:              input.Notes,
		Tags:               input.Tags,
		Status:             input.Status,
	})
	if err != nil {
		return repoErrorResponse(c, err, "Failed to update lead")
	}

	return c.JSON(utils.SuccessResponse(lead))
}

// UpdateLeadStatus moves a lead to a new pipeline stage (Kanban drop target)
func (lc *LeadController) UpdateLeadStatus(c *fiber.Ctx) error {
	var input struct {
		Status string `json:"status" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := lc.Repo.SetStatus(c.Context(), c.Params("id"), input.Status)
	if err != nil {
		return repoErrorResponse(c, err, "Failed to update lead status")
	}

	return c.JSON(utils.SuccessResponse(lead))
}

// DeleteLead removes a lead
func (lc *LeadController) DeleteLead(c *fiber.Ctx) error {
	if err := lc.Repo.Delete(c.Context(), c.Params("id")); err != nil {
		return repoErrorResponse(c, err, "Failed to delete lead")
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": true}))
}

// LogConversation appends a conversation to a lead
func (lc *LeadController) LogConversation(c *fiber.Ctx) error {
	var input struct {
		Type                 string     `json:"type" validate:"required"`
		Date                 time.Time  `json:"date" validate:"required"`
		Summary              string     `json:"summary" validate:"required,min=5"`
		CustomNotes          string     `json:"customNotes"`
		FollowUpReminderDate *time.Time `json:"followUpReminderDate"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := lc.Repo.AppendConversation(c.Context(), c.Params("id"), repository.ConversationInput{
		Type:                 input.Type,
		Date:                 input.Date,
		Summary:              input.Summary,
		CustomNotes:          input.CustomNotes,
		FollowUpReminderDate: input.FollowUpReminderDate,
	})
	if err != nil {
		return repoErrorResponse(c, err, "Failed to log conversation")
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(lead))
}

// UpdateConversationReminder reschedules or clears a follow-up reminder on
// one embedded conversation. A null date clears the reminder.
func (lc *LeadController) UpdateConversationReminder(c *fiber.Ctx) error {
	var input struct {
		FollowUpReminderDate *time.Time `json:"followUpReminderDate"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	lead, err := lc.Repo.SetConversationReminder(
		c.Context(),
		c.Params("id"),
		c.Params("conversationId"),
		input.FollowUpReminderDate,
	)
	if err != nil {
		return repoErrorResponse(c, err, "Failed to update follow-up reminder")
	}

	return c.JSON(utils.SuccessResponse(lead))
}

// repoErrorResponse maps repository errors onto the response envelope:
// validation problems are 400, missing leads/conversations are 404 and
// anything else is treated as the document store being unavailable.
func repoErrorResponse(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	case repository.IsValidationError(err):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	default:
		utils.LogError("store_unavailable", err, map[string]interface{}{"path": c.Path()})
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, message, err)
	}
}
