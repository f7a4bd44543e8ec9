package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
	"github.com/saumyabaranwal/campus-connect/internal/metrics"
	"github.com/saumyabaranwal/campus-connect/internal/models"
)

// LoginRequest is the POST /api/login body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the POST /api/signup body. Intent, year, branch and
// courses are optional; the frontend sends them from the profile form.
type SignupRequest struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6,max=72"`
	Intent   string   `json:"intent"`
	Year     string   `json:"year"`
	Branch   string   `json:"branch"`
	Courses  []string `json:"courses"`
}

// AuthResponse wraps the user returned on successful login or signup.
type AuthResponse struct {
	Success bool        `json:"success"`
	User    models.User `json:"user"`
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !h.cfg.EmailDomainAllowed(email) {
		h.FailFrom(w, apperr.Unauthorized(h.domainsMessage()))
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.log.Error().Err(err).Msg("login lookup failed")
		h.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}

	if user == nil || !passwordMatches(user.Password, req.Password) {
		h.FailFrom(w, apperr.Unauthorized("Invalid credentials"))
		return
	}

	h.JSON(w, http.StatusOK, AuthResponse{Success: true, User: user.Public()})
}

// Signup handles POST /api/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.Fail(w, http.StatusBadRequest, "name, email and password (6+ characters) are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !h.cfg.EmailDomainAllowed(email) {
		h.Fail(w, http.StatusBadRequest, h.domainsMessage())
		return
	}

	existing, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.log.Error().Err(err).Msg("signup lookup failed")
		h.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing != nil {
		h.FailFrom(w, apperr.AlreadyExists("Email already exists"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.Fail(w, http.StatusBadRequest, "name, email and password (6+ characters) are required")
		return
	}
	intent := req.Intent
	if intent == "" {
		intent = "buy"
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Rating:   0,
		Avatar:   strings.ToUpper(string([]rune(name)[0])),
		Intent:   intent,
		Year:     req.Year,
		Branch:   req.Branch,
		Courses:  req.Courses,
	}

	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		h.log.Error().Err(err).Msg("signup create failed")
		h.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}

	metrics.UsersRegistered.Inc()
	h.log.Info().Int64("user_id", created.ID).Msg("user registered")
	h.JSON(w, http.StatusOK, AuthResponse{Success: true, User: created.Public()})
}

// passwordMatches verifies a submitted password against the stored value.
// New accounts store bcrypt hashes; legacy users.json records carried the
// plaintext password, so fall back to a constant-time compare for those.
func passwordMatches(stored, submitted string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
