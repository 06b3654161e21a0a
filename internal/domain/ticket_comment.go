package domain

import "time"

// CommentType separates the requester-visible discussion from staff-only
// notes.
type CommentType string

const (
	CommentTypeTechnical CommentType = "TECHNICAL"
	CommentTypeInternal  CommentType = "INTERNAL"
)

// Valid reports whether the comment type is known.
func (t CommentType) Valid() bool {
	return t == CommentTypeTechnical || t == CommentTypeInternal
}

// TicketComment is one entry in a ticket's discussion thread. The thread is
// free-form conversation; status changes live in the audit trail instead.
type TicketComment struct {
	ID         int64
	TicketID   int64
	AuthorID   int64
	AuthorName string
	Type       CommentType
	Content    string
	CreatedAt  time.Time
}
