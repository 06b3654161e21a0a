package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// ReferenceHandler serves the configurable value sets behind the ticket
// enums.
type ReferenceHandler struct {
	references repository.ReferenceRepository
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(references repository.ReferenceRepository) *ReferenceHandler {
	return &ReferenceHandler{references: references}
}

// ReferenceData handles GET /reference-data.
func (h *ReferenceHandler) ReferenceData(c *fiber.Ctx) error {
	ctx := c.Context()

	types, err := h.references.ListTicketTypes(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	categories, err := h.references.ListCategories(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	priorities, err := h.references.ListPriorities(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}

	return c.JSON(fiber.Map{"data": dto.NewReferenceDataResponse(types, categories, priorities)})
}
