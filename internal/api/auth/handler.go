package auth

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/metrics"
	"github.com/cenk2025/hardpath/internal/models"
)

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("heartpath-timing-equalizer"), bcrypt.DefaultCost)

// Handler handles authentication endpoints.
type Handler struct {
	store          Store
	jwtService     *JWTService
	tokenService   *TokenService
	lockoutTracker *LockoutTracker
}

// NewHandler creates a new auth handler.
func NewHandler(store Store, jwt *JWTService, lockout *LockoutTracker, refreshTTL time.Duration) *Handler {
	return &Handler{
		store:          store,
		jwtService:     jwt,
		tokenService:   NewTokenService(store, refreshTTL),
		lockoutTracker: lockout,
	}
}

// Tokens exposes the refresh token service for account handlers.
func (h *Handler) Tokens() *TokenService {
	return h.tokenService
}

// TokenResponse is returned by register, login and refresh.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	TokenType    string       `json:"token_type"`
	User         *models.User `json:"user,omitempty"`
}

// RegisterRequest is the request body for self-registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Language string `json:"language"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, status int, user *models.User, op string) {
	access, err := h.jwtService.GenerateToken(user)
	if err != nil {
		respond.Internal(w, op+" error: generate access token", err)
		return
	}
	refresh, err := h.tokenService.CreateRefreshToken(r.Context(), user.ID)
	if err != nil {
		respond.Internal(w, op+" error: generate refresh token", err)
		return
	}
	respond.JSON(w, status, &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    h.jwtService.TTLSeconds(),
		TokenType:    "Bearer",
		User:         user,
	})
}

// Register creates a patient or clinician account and signs it in.
// Admin accounts are only created from the CLI.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	email := NormalizeEmail(req.Email)
	if err := ValidateEmail(email); err != nil {
		respond.Validation(w, err.Error())
		return
	}
	fullName := strings.TrimSpace(req.FullName)
	if err := ValidateFullName(fullName); err != nil {
		respond.Validation(w, err.Error())
		return
	}
	if err := ValidatePasswordOrError(req.Password, email); err != nil {
		respond.Validation(w, err.Error())
		return
	}

	role := models.RolePatient
	switch strings.ToLower(strings.TrimSpace(req.Role)) {
	case "", "patient":
	case "clinician", "doctor":
		role = models.RoleClinician
	default:
		respond.Validation(w, "role must be patient or clinician")
		return
	}

	lang := req.Language
	if lang == "" {
		lang = "en"
	}
	if !models.IsValidLanguage(lang) {
		respond.Validation(w, "unsupported language")
		return
	}

	ctx := r.Context()
	existing, err := h.store.Users().GetByEmail(ctx, email)
	if err != nil {
		respond.Internal(w, "register error: lookup email", err)
		return
	}
	if existing != nil {
		respond.Error(w, http.StatusConflict, respond.CodeConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Internal(w, "register error: hash password", err)
		return
	}

	user := models.NewUser(email, fullName, role)
	user.ID = uuid.New().String()
	user.Language = lang
	user.PasswordHash = string(hash)
	if err := h.store.Users().Create(ctx, user); err != nil {
		respond.Internal(w, "register error: create user", err)
		return
	}

	log.Printf("register success: user %s role %s", user.ID, user.Role)
	h.issue(w, r, http.StatusCreated, user, "register")
}

// Login handles user login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		respond.BadRequest(w, "email and password required")
		return
	}

	if h.lockoutTracker.IsLocked(email) {
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		log.Printf("login blocked: account %s locked for %v", email, h.lockoutTracker.RemainingLockoutTime(email))
		respond.Error(w, http.StatusTooManyRequests, respond.CodeAccountLocked,
			"account temporarily locked due to too many failed attempts")
		return
	}

	user, err := h.store.Users().GetByEmail(r.Context(), email)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		respond.Internal(w, "login error: get user", err)
		return
	}

	hash := dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil || user == nil {
		h.lockoutTracker.RecordFailure(email)
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		if user == nil {
			log.Printf("login failed: user %s not found", email)
		} else {
			log.Printf("login failed: invalid password for user %s", user.ID)
		}
		respond.Unauthorized(w, "invalid credentials")
		return
	}

	h.lockoutTracker.ClearFailures(email)
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Printf("login success: user %s", user.ID)
	h.issue(w, r, http.StatusOK, user, "login")
}

// Refresh exchanges a refresh token for a new pair, revoking the old one.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		respond.BadRequest(w, "refresh_token required")
		return
	}

	ctx := r.Context()
	user, err := h.tokenService.ValidateRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		log.Printf("refresh failed: %v", err)
		respond.Unauthorized(w, "invalid or expired token")
		return
	}

	access, err := h.jwtService.GenerateToken(user)
	if err != nil {
		respond.Internal(w, "refresh error: generate access token", err)
		return
	}
	refresh, err := h.tokenService.RotateRefreshToken(ctx, req.RefreshToken, user.ID)
	if err != nil {
		respond.Internal(w, "refresh error: rotate refresh token", err)
		return
	}

	log.Printf("token refresh success: user %s", user.ID)
	respond.OK(w, &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    h.jwtService.TTLSeconds(),
		TokenType:    "Bearer",
	})
}

// Logout revokes the given refresh token. Unknown tokens still get 204.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		respond.BadRequest(w, "refresh_token required")
		return
	}
	if err := h.tokenService.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		log.Printf("logout error: revoke token: %v", err)
	}
	respond.NoContent(w)
}
