package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// NotificationsHandler exposes the recipient's notification inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List handles GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	unreadOnly := c.QueryBool("unread_only", false)
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	notifications, err := h.notifications.List(c.Context(), principal.User, unreadOnly, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNotificationListResponse(notifications)})
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	count, err := h.notifications.UnreadCount(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountResponse{Unread: count}})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	notificationID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.Context(), principal.User, notificationID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"read": true}})
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.notifications.MarkAllRead(c.Context(), principal.User); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"read": true}})
}
