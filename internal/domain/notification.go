package domain

import "time"

// NotificationType keys a notification to the transition that produced it.
type NotificationType string

const (
	NotificationTicketAssigned   NotificationType = "TICKET_ASSIGNED"
	NotificationTicketDelegated  NotificationType = "TICKET_DELEGATED"
	NotificationTicketInProgress NotificationType = "TICKET_IN_PROGRESS"
	NotificationTicketResolved   NotificationType = "TICKET_RESOLVED"
	NotificationTicketValidated  NotificationType = "TICKET_VALIDATED"
	NotificationTicketRejected   NotificationType = "TICKET_REJECTED"
	NotificationTicketReassigned NotificationType = "TICKET_REASSIGNED"
	NotificationReopenEscalation NotificationType = "REOPEN_ESCALATION"
	NotificationTicketReminder   NotificationType = "TICKET_REMINDER"
	NotificationTicketAutoClosed NotificationType = "TICKET_AUTO_CLOSED"
)

// Notification is created by the transition side-effect step inside the same
// transaction as the status change; only the recipient mutates it afterwards
// by marking it read. ReadAt is set once, on first read.
type Notification struct {
	ID        int64
	UserID    int64
	Type      NotificationType
	TicketID  int64
	Message   string
	Read      bool
	CreatedAt time.Time
	ReadAt    *time.Time
}
