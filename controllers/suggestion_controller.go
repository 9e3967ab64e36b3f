package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"leadpilot/repository"
	"leadpilot/utils"
)

type SuggestionController struct {
	Suggester *utils.Suggester
	Repo      *repository.LeadRepository
	Logger    *log.Logger
}

func NewSuggestionController(suggester *utils.Suggester, repo *repository.LeadRepository, logger *log.Logger) *SuggestionController {
	return &SuggestionController{
		Suggester: suggester,
		Repo:      repo,
		Logger:    logger,
	}
}

// SuggestNextSteps asks the model for 3-5 actionable steps for a lead
func (sc *SuggestionController) SuggestNextSteps(c *fiber.Ctx) error {
	var input struct {
		LeadID string `json:"leadId" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := sc.Repo.Get(c.Context(), input.LeadID)
	if err != nil {
		return repoErrorResponse(c, err, "Failed to fetch lead")
	}

	steps, err := sc.Suggester.SuggestNextSteps(c.Context(), utils.LeadProfile{
		Name:                 lead.Name,
		Email:                lead.Email,
		LinkedinProfileURL:   lead.LinkedinProfileURL,
		Company:              lead.Company,
		Notes:                lead.Notes,
		Tags:                 lead.Tags,
		CommunicationHistory: lead.CommunicationHistory(),
	})
	if err != nil {
		return suggestErrorResponse(c, err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"nextSteps": steps}))
}

// SuggestSummary asks the model to condense raw conversation notes
func (sc *SuggestionController) SuggestSummary(c *fiber.Ctx) error {
	var input struct {
		RawNotes string `json:"rawNotes" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	summary, err := sc.Suggester.SuggestSummary(c.Context(), input.RawNotes)
	if err != nil {
		return suggestErrorResponse(c, err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"suggestedSummary": summary}))
}

// suggestErrorResponse keeps the two failure modes of the suggestion service
// distinguishable for the client: unreachable vs. malformed answer.
func suggestErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, utils.ErrNotesTooShort):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, utils.ErrServiceUnavailable):
		utils.LogError("suggestion_service_unavailable", err, map[string]interface{}{"path": c.Path()})
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable,
			"The suggestion service could not be reached. Please try again later.", err)
	case errors.Is(err, utils.ErrInvalidResponse):
		utils.LogError("suggestion_invalid_response", err, map[string]interface{}{"path": c.Path()})
		return utils.ErrorResponse(c, fiber.StatusBadGateway,
			"The suggestion service returned an unexpected answer.", err)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Suggestion request failed", err)
	}
}
