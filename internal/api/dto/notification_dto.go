package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// NotificationResponse payload.
type NotificationResponse struct {
	ID        int64                   `json:"id"`
	Type      domain.NotificationType `json:"type"`
	TicketID  int64                   `json:"ticket_id"`
	Message   string                  `json:"message"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"created_at"`
	ReadAt    *time.Time              `json:"read_at,omitempty"`
}

// NewNotificationListResponse maps notifications.
func NewNotificationListResponse(notifications []domain.Notification) []NotificationResponse {
	result := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			TicketID:  n.TicketID,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
			ReadAt:    n.ReadAt,
		})
	}
	return result
}

// UnreadCountResponse payload.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
