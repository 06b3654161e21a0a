package domain

import (
	"strconv"
	"time"
)

// SystemActorLabel is rendered for transitions performed by the sweeper
// rather than a human, i.e. history rows with a nil ActorUserID.
const SystemActorLabel = "system"

// TicketHistory is an immutable audit trail entry: exactly one row per
// accepted transition, never updated or deleted. OldStatus is nil for the
// creation entry, ActorUserID is nil for system-driven transitions.
type TicketHistory struct {
	ID          int64
	TicketID    int64
	OldStatus   *TicketStatus
	NewStatus   TicketStatus
	ActorUserID *int64
	Reason      *string
	ChangedAt   time.Time
}

// ActorLabel returns the acting user id as recorded, or the system sentinel.
func (h TicketHistory) ActorLabel() string {
	if h.ActorUserID == nil {
		return SystemActorLabel
	}
	return strconv.FormatInt(*h.ActorUserID, 10)
}
