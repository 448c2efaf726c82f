// Package users serves the signed-in user's profile and the admin account
// endpoints.
package users

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cenk2025/hardpath/internal/api/auth"
	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/storage"
)

// DeleteConfirmation must be sent verbatim to erase an account.
const DeleteConfirmation = "DELETE"

// Store is the part of storage the users handler needs.
type Store interface {
	Users() storage.UserRepository
	Tokens() storage.TokenRepository
	Consents() storage.ConsentRepository
	Messages() storage.MessageRepository
}

// Handler handles profile and user management endpoints.
type Handler struct {
	store  Store
	tokens *auth.TokenService
}

// NewHandler creates a users handler. tokens revokes sessions after
// password or role changes.
func NewHandler(store Store, tokens *auth.TokenService) *Handler {
	return &Handler{store: store, tokens: tokens}
}

// ProfileResponse is the body of GET /me.
type ProfileResponse struct {
	User           *models.User    `json:"user"`
	Consent        *models.Consent `json:"consent,omitempty"`
	UnreadMessages int64           `json:"unread_messages"`
}

// UpdateProfileRequest changes display settings. Nil fields are kept.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Language *string `json:"language"`
}

// OnboardingRequest completes onboarding. Consent fields left out take the
// pre-selected defaults.
type OnboardingRequest struct {
	Language  string `json:"language"`
	HeartRate *bool  `json:"heart_rate"`
	Activity  *bool  `json:"activity"`
	Sleep     *bool  `json:"sleep"`
	ECG       *bool  `json:"ecg"`
	Sharing   *bool  `json:"sharing"`
}

// ChangePasswordRequest is the body of PUT /me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// DeleteAccountRequest is the body of DELETE /me.
type DeleteAccountRequest struct {
	Confirm string `json:"confirm"`
}

// UpdateRoleRequest is the body of PUT /admin/users/{id}/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	user, err := h.store.Users().GetByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respond.Internal(w, "get current user", err)
		return nil
	}
	if user == nil {
		respond.NotFound(w, "user not found")
		return nil
	}
	return user
}

// GetCurrentUser returns the caller's profile with consent and unread count.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	ctx := r.Context()

	resp := ProfileResponse{User: user}
	if user.Role == models.RolePatient {
		consent, err := h.store.Consents().Get(ctx, user.ID)
		if err != nil {
			respond.Internal(w, "get consent", err)
			return
		}
		resp.Consent = consent
	}
	unread, err := h.store.Messages().CountUnread(ctx, user.ID)
	if err != nil {
		respond.Internal(w, "count unread messages", err)
		return
	}
	resp.UnreadMessages = unread
	respond.OK(w, resp)
}

// UpdateCurrentUser changes the caller's name or language.
func (h *Handler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if err := auth.ValidateFullName(name); err != nil {
			respond.Validation(w, err.Error())
			return
		}
		user.FullName = name
	}
	if req.Language != nil {
		if !models.IsValidLanguage(*req.Language) {
			respond.Validation(w, "unsupported language")
			return
		}
		user.Language = *req.Language
	}

	user.UpdatedAt = time.Now().UTC()
	if err := h.store.Users().Update(r.Context(), user); err != nil {
		respond.Internal(w, "update profile", err)
		return
	}
	respond.OK(w, user)
}

// CompleteOnboarding stores consent for patients and marks onboarding done.
func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var req OnboardingRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if req.Language != "" {
		if !models.IsValidLanguage(req.Language) {
			respond.Validation(w, "unsupported language")
			return
		}
		user.Language = req.Language
	}

	ctx := r.Context()
	now := time.Now().UTC()

	var consent *models.Consent
	if user.Role == models.RolePatient {
		consent = models.DefaultConsent(user.ID)
		setIf(&consent.HeartRate, req.HeartRate)
		setIf(&consent.Activity, req.Activity)
		setIf(&consent.Sleep, req.Sleep)
		setIf(&consent.ECG, req.ECG)
		setIf(&consent.Sharing, req.Sharing)
		consent.AcceptedAt = now
		if err := h.store.Consents().Upsert(ctx, consent); err != nil {
			respond.Internal(w, "store consent", err)
			return
		}
	}

	user.OnboardingCompleted = true
	user.UpdatedAt = now
	if err := h.store.Users().Update(ctx, user); err != nil {
		respond.Internal(w, "complete onboarding", err)
		return
	}

	log.Printf("onboarding completed: user %s", user.ID)
	respond.OK(w, ProfileResponse{User: user, Consent: consent})
}

func setIf(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ChangePassword verifies the current password, stores the new one and
// signs out every other session.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respond.BadRequest(w, "current_password and new_password required")
		return
	}
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		log.Printf("change password failed: wrong current password for user %s", user.ID)
		respond.Unauthorized(w, "current password is incorrect")
		return
	}
	if err := auth.ValidatePasswordOrError(req.NewPassword, user.Email); err != nil {
		respond.Validation(w, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respond.Internal(w, "hash password", err)
		return
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()

	ctx := r.Context()
	if err := h.store.Users().Update(ctx, user); err != nil {
		respond.Internal(w, "update password", err)
		return
	}
	if err := h.tokens.RevokeAllUserTokens(ctx, user.ID); err != nil {
		log.Printf("change password: revoke tokens for user %s: %v", user.ID, err)
	}

	log.Printf("password changed: user %s", user.ID)
	respond.NoContent(w)
}

// DeleteCurrentUser erases the caller's account and every row they own.
func (h *Handler) DeleteCurrentUser(w http.ResponseWriter, r *http.Request) {
	var req DeleteAccountRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.Confirm != DeleteConfirmation {
		respond.Validation(w, `confirm must be "DELETE"`)
		return
	}
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if user.IsAdmin() {
		last, err := h.isLastAdmin(r, user.ID)
		if err != nil {
			respond.Internal(w, "count admins", err)
			return
		}
		if last {
			respond.Error(w, http.StatusConflict, respond.CodeConflict, "cannot delete the last admin")
			return
		}
	}

	if err := h.store.Users().Delete(r.Context(), user.ID); err != nil {
		respond.Internal(w, "delete account", err)
		return
	}
	log.Printf("account deleted: user %s", user.ID)
	respond.NoContent(w)
}

func (h *Handler) isLastAdmin(r *http.Request, userID string) (bool, error) {
	admins, err := h.store.Users().ListByRole(r.Context(), models.RoleAdmin)
	if err != nil {
		return false, err
	}
	return len(admins) == 1 && admins[0].ID == userID, nil
}

// List returns all users, optionally filtered by ?role=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		users []*models.User
		err   error
	)
	if role := r.URL.Query().Get("role"); role != "" {
		parsed, ok := parseRole(role)
		if !ok {
			respond.Validation(w, "role must be one of: admin, clinician, patient")
			return
		}
		users, err = h.store.Users().ListByRole(ctx, parsed)
	} else {
		users, err = h.store.Users().List(ctx)
	}
	if err != nil {
		respond.Internal(w, "list users", err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	respond.OK(w, users)
}

func parseRole(s string) (models.Role, bool) {
	switch models.Role(strings.ToLower(strings.TrimSpace(s))) {
	case models.RoleAdmin:
		return models.RoleAdmin, true
	case models.RoleClinician:
		return models.RoleClinician, true
	case models.RolePatient:
		return models.RolePatient, true
	}
	return "", false
}

// UpdateRole changes a user's role and revokes their sessions so the new
// role takes effect on next sign-in.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		respond.Validation(w, "role must be one of: admin, clinician, patient")
		return
	}

	id := chi.URLParam(r, "id")
	if id == middleware.GetUserID(r.Context()) {
		respond.BadRequest(w, "cannot change your own role")
		return
	}

	ctx := r.Context()
	user, err := h.store.Users().GetByID(ctx, id)
	if err != nil {
		respond.Internal(w, "get user", err)
		return
	}
	if user == nil {
		respond.NotFound(w, "user not found")
		return
	}

	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := h.store.Users().Update(ctx, user); err != nil {
		respond.Internal(w, "update role", err)
		return
	}
	if err := h.tokens.RevokeAllUserTokens(ctx, user.ID); err != nil {
		log.Printf("update role: revoke tokens for user %s: %v", user.ID, err)
	}

	log.Printf("role changed: user %s is now %s (by %s)", user.ID, role, middleware.GetUserID(ctx))
	respond.OK(w, user)
}

// Delete removes another user's account.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == middleware.GetUserID(r.Context()) {
		respond.BadRequest(w, "use DELETE /me to delete your own account")
		return
	}

	err := h.store.Users().Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respond.NotFound(w, "user not found")
		return
	}
	if err != nil {
		respond.Internal(w, "delete user", err)
		return
	}
	log.Printf("user deleted: %s (by %s)", id, middleware.GetUserID(r.Context()))
	respond.NoContent(w)
}
