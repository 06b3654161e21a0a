package domain

import "time"

// Feedback score bounds (closed range).
const (
	FeedbackScoreMin = 1
	FeedbackScoreMax = 5
)

// TicketFeedback records the creator's satisfaction after closure, at most
// one per ticket.
type TicketFeedback struct {
	ID        int64
	TicketID  int64
	UserID    int64
	Score     int
	Comment   *string
	CreatedAt time.Time
}
