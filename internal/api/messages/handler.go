// Package messages serves direct messaging between patients and the care team.
package messages

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/realtime"
	"github.com/cenk2025/hardpath/internal/storage"
)

// MaxContentLength bounds a message body.
const MaxContentLength = 2000

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 500
)

// Publisher pushes realtime events to one user.
type Publisher interface {
	SendToUser(userID, eventType string, data any)
}

// Handler handles message endpoints.
type Handler struct {
	storage storage.Storage
	events  Publisher
	now     func() time.Time
}

// NewHandler creates a new message handler. events may be nil.
func NewHandler(store storage.Storage, events Publisher) *Handler {
	return &Handler{storage: store, events: events, now: time.Now}
}

// SendRequest is the body of POST /messages.
type SendRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// Contact is a user the caller may message.
type Contact struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Language string      `json:"language"`
}

// CanMessage reports whether a and b may exchange messages: exactly one of
// them must be a patient.
func CanMessage(a, b *models.User) bool {
	if a == nil || b == nil || a.ID == b.ID {
		return false
	}
	return (a.Role == models.RolePatient) != (b.Role == models.RolePatient)
}

// counterpart loads the other party and checks the pairing. It writes the
// error response and returns nil when the pairing is not allowed.
func (h *Handler) counterpart(w http.ResponseWriter, r *http.Request, otherID string) (*models.User, *models.User) {
	ctx := r.Context()
	me, err := h.storage.Users().GetByID(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respond.Internal(w, "get user", err)
		return nil, nil
	}
	if me == nil {
		respond.Unauthorized(w, "user no longer exists")
		return nil, nil
	}
	other, err := h.storage.Users().GetByID(ctx, otherID)
	if err != nil {
		respond.Internal(w, "get counterpart", err)
		return nil, nil
	}
	if other == nil {
		respond.NotFound(w, "user not found")
		return nil, nil
	}
	if !CanMessage(me, other) {
		respond.Forbidden(w)
		return nil, nil
	}
	return me, other
}

// Conversation returns the messages exchanged with ?with=, oldest first,
// and marks the ones received by the caller as read.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	otherID := r.URL.Query().Get("with")
	if otherID == "" {
		respond.Validation(w, "with is required")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			respond.Validation(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	me, other := h.counterpart(w, r, otherID)
	if me == nil {
		return
	}

	ctx := r.Context()
	msgs, err := h.storage.Messages().ListConversation(ctx, me.ID, other.ID, limit)
	if err != nil {
		respond.Internal(w, "list conversation", err)
		return
	}
	if _, err := h.storage.Messages().MarkRead(ctx, me.ID, other.ID, h.now().UTC()); err != nil {
		respond.Internal(w, "mark messages read", err)
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	respond.OK(w, msgs)
}

// Send stores a message and pushes it to the receiver when connected.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respond.Validation(w, "content is required")
		return
	}
	if len([]rune(content)) > MaxContentLength {
		respond.Validation(w, "content must be at most 2000 characters")
		return
	}
	if req.ReceiverID == "" {
		respond.Validation(w, "receiver_id is required")
		return
	}

	me, other := h.counterpart(w, r, req.ReceiverID)
	if me == nil {
		return
	}

	msg := &models.Message{
		SenderID:   me.ID,
		ReceiverID: other.ID,
		Content:    content,
		CreatedAt:  h.now().UTC(),
	}
	if err := h.storage.Messages().Create(r.Context(), msg); err != nil {
		respond.Internal(w, "create message", err)
		return
	}
	if h.events != nil {
		h.events.SendToUser(other.ID, realtime.EventMessageCreated, msg)
	}
	respond.Created(w, msg)
}

// Contacts lists the users the caller may message: the care team for a
// patient, every patient for the care team.
func (h *Handler) Contacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		users []*models.User
		err   error
	)
	if middleware.GetRole(ctx) == models.RolePatient {
		var clinicians, admins []*models.User
		clinicians, err = h.storage.Users().ListByRole(ctx, models.RoleClinician)
		if err == nil {
			admins, err = h.storage.Users().ListByRole(ctx, models.RoleAdmin)
		}
		users = append(clinicians, admins...)
	} else {
		users, err = h.storage.Users().ListByRole(ctx, models.RolePatient)
	}
	if err != nil {
		respond.Internal(w, "list contacts", err)
		return
	}

	contacts := make([]Contact, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, Contact{ID: u.ID, Name: u.DisplayName(), Role: u.Role, Language: u.Language})
	}
	respond.OK(w, contacts)
}
