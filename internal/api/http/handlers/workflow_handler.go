package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// WorkflowHandler exposes the staff transition endpoints. Role capability
// and state checks live in the lifecycle engine; the handler only shapes
// requests.
type WorkflowHandler struct {
	tickets *service.TicketService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(tickets *service.TicketService) *WorkflowHandler {
	return &WorkflowHandler{tickets: tickets}
}

// Assign handles POST /tickets/:id/assign.
func (h *WorkflowHandler) Assign(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Assign(c.Context(), actorFrom(principal.User), ticketID, lifecycle.AssignPayload{
		TechnicianID: req.TechnicianID,
		Priority:     req.Priority,
		Reason:       req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Delegate handles POST /tickets/:id/delegate.
func (h *WorkflowHandler) Delegate(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.DelegateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Delegate(c.Context(), actorFrom(principal.User), ticketID, lifecycle.DelegatePayload{
		DelegateID: req.DelegateID,
		Reason:     req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Start handles POST /tickets/:id/start.
func (h *WorkflowHandler) Start(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ticket, err := h.tickets.StartWork(c.Context(), actorFrom(principal.User), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Resolve handles POST /tickets/:id/resolve.
func (h *WorkflowHandler) Resolve(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Resolve(c.Context(), actorFrom(principal.User), ticketID, lifecycle.ResolvePayload{
		Summary: req.Summary,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}
