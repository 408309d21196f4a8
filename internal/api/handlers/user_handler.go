package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/isdelr/mediinsight-be/internal/access"
	"github.com/isdelr/mediinsight-be/internal/auth"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles signup, login and the session lifecycle.
type UserHandler struct {
	service services.UserServiceProvider
	events  services.EventServiceProvider
	tokens  *auth.TokenManager
	secure  bool
}

// NewUserHandler creates a new UserHandler. secure marks the session cookie Secure.
func NewUserHandler(service services.UserServiceProvider, events services.EventServiceProvider, tokens *auth.TokenManager, secure bool) *UserHandler {
	return &UserHandler{service: service, events: events, tokens: tokens, secure: secure}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FormField describes one input of a form.
type FormField struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

var (
	loginForm = []FormField{
		{Name: "username", Type: "text", Label: "Username"},
		{Name: "password", Type: "password", Label: "Password"},
	}
	signupForm = []FormField{
		{Name: "username", Type: "text", Label: "Username"},
		{Name: "email", Type: "email", Label: "Email"},
		{Name: "password", Type: "password", Label: "Password"},
	}
)

// Home serves the landing page.
func (h *UserHandler) Home(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.ViewLanding, access.Resource{}); !ok {
		return
	}
	body := map[string]interface{}{
		"name":   "MediInsight",
		"models": []string{string(models.KindTumor), string(models.KindDiabetes)},
	}
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		body["user"] = identity
	}
	writeJSON(w, http.StatusOK, body)
}

// LoginForm describes the login form.
func (h *UserHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.ViewLoginForm, access.Resource{}); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"fields": loginForm})
}

// SignupForm describes the signup form.
func (h *UserHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.ViewSignupForm, access.Resource{}); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"fields": signupForm})
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.ViewSignupForm, access.Resource{}); !ok {
		return
	}
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeServiceError(w, err, "Failed to register user")
		return
	}

	recordEvent(r, h.events, "user.signup", "info", fmt.Sprintf("User '%s' signed up.", user.Username), &user.Username)
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication and sets the session cookie.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.ViewLoginForm, access.Resource{}); !ok {
		return
	}
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
			recordEvent(r, h.events, "user.login.fail", "warn", fmt.Sprintf("Failed login for '%s'.", payload.Username), nil)
		}
		writeServiceError(w, err, "Failed to log in")
		return
	}

	token, err := h.tokens.Generate(user.Identity())
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Failed to generate JWT")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	h.tokens.SetCookie(w, token, h.secure)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Logout clears the session cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w, h.secure)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out", "redirect": LoginPage})
}

// GetMe returns the signed-in account.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := authorize(w, r, access.ViewOwnDashboard, access.Resource{})
	if !ok {
		return
	}
	user, err := h.service.GetUserByUsername(r.Context(), identity.Username)
	if err != nil {
		writeServiceError(w, err, "Failed to load user")
		return
	}
	user.PasswordHash = ""
	writeJSON(w, http.StatusOK, user)
}
