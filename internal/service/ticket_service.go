package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows: creation, the
// read-decide-apply transition cycle and post-closure feedback. Transition
// decisions come from the lifecycle engine; their application is atomic in
// the ticket repository; event delivery happens after commit and is
// best-effort.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	feedback   repository.FeedbackRepository
	comments   repository.TicketCommentRepository
	users      repository.UserRepository
	engine     *lifecycle.Engine
	dispatcher events.Dispatcher
	logger     *zap.Logger
	retries    int
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	HistoryRepo  repository.TicketHistoryRepository
	FeedbackRepo repository.FeedbackRepository
	CommentRepo  repository.TicketCommentRepository
	UserRepo     repository.UserRepository
	Engine       *lifecycle.Engine
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	// Retries bounds re-runs of the read-decide-apply cycle after a lost
	// race; rejections from the engine are never retried.
	Retries int
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Type        domain.TicketType
	Category    *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	retries := deps.Retries
	if retries < 0 {
		retries = 0
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		feedback:   deps.FeedbackRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		retries:    retries,
		now:        now,
	}
}

// CreateTicket creates a ticket for a requester. Priority stays unset until
// an assignment-capable actor assigns the ticket.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if input.Type != domain.TicketTypeMaterial && input.Type != domain.TicketTypeApplication {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": input.Type})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Type:        input.Type,
		Category:    input.Category,
		Status:      domain.TicketStatusCreated,
		CreatorID:   creator.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.history.CreateInitial(ctx, ticket.ID, ticket.Status, creator.ID); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userEventActor(creator.ID, creator.Role),
		Payload: events.TicketCreatedPayload{
			Number: ticket.Number,
			Type:   ticket.Type,
			Title:  ticket.Title,
		},
	})
	return ticket, nil
}

// Assign assigns a ticket to a technician, setting priority. From REJECTED
// this is the reassignment path and bumps the reopen counter.
func (s *TicketService) Assign(ctx context.Context, actor lifecycle.Actor, ticketID int64, payload lifecycle.AssignPayload) (*domain.Ticket, error) {
	if _, err := s.loadActiveUser(ctx, payload.TechnicianID); err != nil {
		return nil, err
	}
	return s.executeTransition(ctx, ticketID, lifecycle.Request{
		Action: authz.ActionAssign,
		Actor:  actor,
		Assign: &payload,
	})
}

// Delegate hands a ticket to another assignment-capable staff member.
func (s *TicketService) Delegate(ctx context.Context, actor lifecycle.Actor, ticketID int64, payload lifecycle.DelegatePayload) (*domain.Ticket, error) {
	if _, err := s.loadActiveUser(ctx, payload.DelegateID); err != nil {
		return nil, err
	}
	return s.executeTransition(ctx, ticketID, lifecycle.Request{
		Action:   authz.ActionDelegate,
		Actor:    actor,
		Delegate: &payload,
	})
}

// StartWork moves an assigned ticket into progress.
func (s *TicketService) StartWork(ctx context.Context, actor lifecycle.Actor, ticketID int64) (*domain.Ticket, error) {
	return s.executeTransition(ctx, ticketID, lifecycle.Request{
		Action: authz.ActionStart,
		Actor:  actor,
	})
}

// Resolve records the resolution summary and awaits creator validation.
func (s *TicketService) Resolve(ctx context.Context, actor lifecycle.Actor, ticketID int64, payload lifecycle.ResolvePayload) (*domain.Ticket, error) {
	return s.executeTransition(ctx, ticketID, lifecycle.Request{
		Action:  authz.ActionResolve,
		Actor:   actor,
		Resolve: &payload,
	})
}

// Validate applies the creator's verdict on a resolved ticket.
func (s *TicketService) Validate(ctx context.Context, actor lifecycle.Actor, ticketID int64, payload lifecycle.ValidatePayload) (*domain.Ticket, error) {
	return s.executeTransition(ctx, ticketID, lifecycle.Request{
		Action:   authz.ActionValidate,
		Actor:    actor,
		Validate: &payload,
	})
}

// AutoClose is the sweeper's entry point for system closure.
func (s *TicketService) AutoClose(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return s.executeTransition(ctx, ticketID, lifecycle.Request{
		Action: authz.ActionClose,
		Actor:  lifecycle.SystemActor,
	})
}

// executeTransition runs the read-decide-apply cycle, retrying a bounded
// number of times when a concurrent transition wins the version race. Engine
// rejections return immediately with no side effects.
func (s *TicketService) executeTransition(ctx context.Context, ticketID int64, req lifecycle.Request) (*domain.Ticket, error) {
	for attempt := 0; ; attempt++ {
		ticket, err := s.tickets.LoadForTransition(ctx, ticketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return nil, apperrors.MapError(err)
		}

		req.Now = s.now()
		decision, err := s.engine.Decide(ticket, req)
		if err != nil {
			return nil, apperrors.MapError(err)
		}

		err = s.tickets.ApplyTransition(ctx, ticket, decision)
		if errors.Is(err, lifecycle.ErrConflict) && attempt < s.retries {
			s.logger.Debug("transition lost version race, retrying",
				zap.Int64("ticket_id", ticketID),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, apperrors.MapError(err)
		}

		s.publishTransition(ctx, ticket, req, decision)
		return ticket, nil
	}
}

// SubmitFeedback records the creator's satisfaction score after closure.
func (s *TicketService) SubmitFeedback(ctx context.Context, user *domain.User, ticketID int64, score int, comment *string) (*domain.TicketFeedback, error) {
	if score < domain.FeedbackScoreMin || score > domain.FeedbackScoreMax {
		return nil, apperrors.NewValidationError("score out of range", map[string]any{
			"min": domain.FeedbackScoreMin,
			"max": domain.FeedbackScoreMax,
		})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.CreatorID != user.ID {
		return nil, apperrors.NewForbidden("only the ticket creator may leave feedback")
	}
	if !ticket.Status.Terminal() {
		return nil, apperrors.NewConflict("feedback is accepted after closure only", map[string]any{"status": ticket.Status})
	}
	if _, err := s.feedback.GetByTicket(ctx, ticketID); err == nil {
		return nil, apperrors.NewConflict("feedback already submitted", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	feedback := &domain.TicketFeedback{
		TicketID: ticketID,
		UserID:   user.ID,
		Score:    score,
		Comment:  comment,
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, apperrors.MapError(err)
	}
	return feedback, nil
}

// ListForActor returns tickets visible to the caller: creators see their
// own, technicians their assignments, assignment-capable roles everything.
func (s *TicketService) ListForActor(ctx context.Context, user *domain.User, limit, offset int) ([]domain.Ticket, error) {
	switch user.Role {
	case domain.RoleUser:
		return s.tickets.ListByCreator(ctx, user.ID, limit, offset)
	case domain.RoleTechnician:
		return s.tickets.ListByTechnician(ctx, user.ID, limit, offset)
	default:
		return s.tickets.ListAll(ctx, limit, offset)
	}
}

// GetTicketForActor fetches a ticket, enforcing visibility.
func (s *TicketService) GetTicketForActor(ctx context.Context, user *domain.User, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !s.canView(user, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// ListHistory returns the audit trail for a visible ticket.
func (s *TicketService) ListHistory(ctx context.Context, user *domain.User, ticketID int64) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicketForActor(ctx, user, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// CommentInput describes a new discussion thread entry.
type CommentInput struct {
	Content string
	Type    domain.CommentType
}

// AddComment appends to the discussion thread of a visible ticket. Internal
// notes are reserved for staff; the type defaults to technical.
func (s *TicketService) AddComment(ctx context.Context, user *domain.User, ticketID int64, input CommentInput) (*domain.TicketComment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	commentType := input.Type
	if commentType == "" {
		commentType = domain.CommentTypeTechnical
	}
	if !commentType.Valid() {
		return nil, apperrors.NewValidationError("unknown comment type", map[string]any{"type": commentType})
	}
	if commentType == domain.CommentTypeInternal && user.Role == domain.RoleUser {
		return nil, apperrors.NewForbidden("internal notes are reserved for staff")
	}
	if _, err := s.GetTicketForActor(ctx, user, ticketID); err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		TicketID:   ticketID,
		AuthorID:   user.ID,
		AuthorName: user.FullName,
		Type:       commentType,
		Content:    content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// ListComments returns the discussion thread of a visible ticket. Requesters
// do not see internal notes.
func (s *TicketService) ListComments(ctx context.Context, user *domain.User, ticketID int64) ([]domain.TicketComment, error) {
	if _, err := s.GetTicketForActor(ctx, user, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if user.Role != domain.RoleUser {
		return comments, nil
	}
	visible := make([]domain.TicketComment, 0, len(comments))
	for _, comment := range comments {
		if comment.Type != domain.CommentTypeInternal {
			visible = append(visible, comment)
		}
	}
	return visible, nil
}

func (s *TicketService) canView(user *domain.User, ticket *domain.Ticket) bool {
	switch user.Role {
	case domain.RoleUser:
		return ticket.CreatorID == user.ID
	case domain.RoleTechnician:
		return (ticket.TechnicianID != nil && *ticket.TechnicianID == user.ID) || ticket.CreatorID == user.ID
	default:
		return true
	}
}

func (s *TicketService) loadActiveUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewConflict("user inactive", map[string]any{"user_id": id})
	}
	return user, nil
}

func (s *TicketService) publishTransition(ctx context.Context, ticket *domain.Ticket, req lifecycle.Request, decision *lifecycle.Decision) {
	refs := make([]events.NotificationRef, 0, len(decision.Notifications))
	for _, n := range decision.Notifications {
		refs = append(refs, events.NotificationRef{
			UserID:  n.UserID,
			Type:    n.Type,
			Message: n.Message,
		})
	}
	actor := events.Actor{System: true}
	if !req.Actor.System {
		actor = userEventActor(req.Actor.ID, req.Actor.Role)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketTransitioned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketTransitionedPayload{
			OldStatus:     derefStatus(decision.History.OldStatus),
			NewStatus:     decision.NewStatus,
			Reason:        decision.History.Reason,
			Escalated:     decision.Escalated,
			Notifications: refs,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func userEventActor(id int64, role domain.Role) events.Actor {
	return events.Actor{UserID: &id, Role: role}
}

func derefStatus(status *domain.TicketStatus) domain.TicketStatus {
	if status == nil {
		return ""
	}
	return *status
}
