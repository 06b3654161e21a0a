package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Type        domain.TicketType `json:"type"`
	Category    *string           `json:"category"`
}

// TicketResponse carries full ticket state.
type TicketResponse struct {
	ID                int64                  `json:"id"`
	Number            int64                  `json:"number"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description"`
	Type              domain.TicketType      `json:"type"`
	Category          *string                `json:"category,omitempty"`
	Status            domain.TicketStatus    `json:"status"`
	Priority          *domain.TicketPriority `json:"priority,omitempty"`
	CreatorID         int64                  `json:"creator_id"`
	TechnicianID      *int64                 `json:"technician_id,omitempty"`
	SecretaryID       *int64                 `json:"secretary_id,omitempty"`
	ResolutionSummary *string                `json:"resolution_summary,omitempty"`
	ReopenCount       int                    `json:"reopen_count"`
	CreatedAt         time.Time              `json:"created_at"`
	AssignedAt        *time.Time             `json:"assigned_at,omitempty"`
	ResolvedAt        *time.Time             `json:"resolved_at,omitempty"`
	ClosedAt          *time.Time             `json:"closed_at,omitempty"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                t.ID,
		Number:            t.Number,
		Title:             t.Title,
		Description:       t.Description,
		Type:              t.Type,
		Category:          t.Category,
		Status:            t.Status,
		Priority:          t.Priority,
		CreatorID:         t.CreatorID,
		TechnicianID:      t.TechnicianID,
		SecretaryID:       t.SecretaryID,
		ResolutionSummary: t.ResolutionSummary,
		ReopenCount:       t.ReopenCount,
		CreatedAt:         t.CreatedAt,
		AssignedAt:        t.AssignedAt,
		ResolvedAt:        t.ResolvedAt,
		ClosedAt:          t.ClosedAt,
	}
}

// NewTicketListResponse maps a slice of tickets.
func NewTicketListResponse(tickets []domain.Ticket) []TicketResponse {
	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, NewTicketResponse(&tickets[i]))
	}
	return result
}

// HistoryEntryResponse represents one audit trail entry. Actor is the user
// id as text, or "system" for sweeper transitions.
type HistoryEntryResponse struct {
	ID        int64                `json:"id"`
	OldStatus *domain.TicketStatus `json:"old_status,omitempty"`
	NewStatus domain.TicketStatus  `json:"new_status"`
	Actor     string               `json:"actor"`
	Reason    *string              `json:"reason,omitempty"`
	ChangedAt time.Time            `json:"changed_at"`
}

// NewHistoryResponse maps history entries.
func NewHistoryResponse(entries []domain.TicketHistory) []HistoryEntryResponse {
	result := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, HistoryEntryResponse{
			ID:        entry.ID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Actor:     entry.ActorLabel(),
			Reason:    entry.Reason,
			ChangedAt: entry.ChangedAt,
		})
	}
	return result
}

// CommentRequest payload for a discussion thread entry. Type defaults to
// technical when omitted.
type CommentRequest struct {
	Content string             `json:"content"`
	Type    domain.CommentType `json:"type"`
}

// CommentResponse payload.
type CommentResponse struct {
	ID         int64              `json:"id"`
	TicketID   int64              `json:"ticket_id"`
	AuthorID   int64              `json:"author_id"`
	AuthorName string             `json:"author_name"`
	Type       domain.CommentType `json:"type"`
	Content    string             `json:"content"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(c *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Type:       c.Type,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

// NewCommentListResponse maps a slice of comments.
func NewCommentListResponse(comments []domain.TicketComment) []CommentResponse {
	result := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, NewCommentResponse(&comments[i]))
	}
	return result
}

// FeedbackRequest payload for post-closure satisfaction feedback.
type FeedbackRequest struct {
	Score   int     `json:"score"`
	Comment *string `json:"comment"`
}

// FeedbackResponse payload.
type FeedbackResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	Score     int       `json:"score"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFeedbackResponse maps domain feedback.
func NewFeedbackResponse(f *domain.TicketFeedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        f.ID,
		TicketID:  f.TicketID,
		Score:     f.Score,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	}
}
